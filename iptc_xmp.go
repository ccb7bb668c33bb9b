package exiv2

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// The codecs below implement the IptcParser/XmpParser/Photoshop
// collaborators spec.md §6 treats as external ("consumed as opaque
// byte-level encode/decode functions", §1 EXCLUDED). They are intentionally
// minimal, self-consistent implementations — good enough to drive the
// Decoder/Encoder round trip in this module's own tests — not a conformant
// IPTC IIM or XMP/RDF implementation.

// iptcDatasets is the small subset of IPTC IIM dataset numbers this default
// codec understands.
var iptcDatasets = map[string]byte{
	"Caption":  120,
	"Keywords": 25,
	"City":     90,
	"Credit":   110,
}

var iptcDatasetNames = func() map[byte]string {
	m := make(map[byte]string, len(iptcDatasets))
	for name, id := range iptcDatasets {
		m[id] = name
	}
	return m
}()

// DefaultIptcParser is the built-in IPTC IIM-ish codec.
type DefaultIptcParser struct{}

func NewDefaultIptcParser() *DefaultIptcParser { return &DefaultIptcParser{} }

// Encode serializes records as a sequence of 0x1C 0x02 <dataset> <len:u16 BE>
// <value> IIM records.
func (DefaultIptcParser) Encode(records map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	for name, value := range records {
		id, ok := iptcDatasets[name]
		if !ok {
			continue
		}
		buf.WriteByte(0x1c)
		buf.WriteByte(0x02)
		buf.WriteByte(id)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(value)))
		buf.Write(lenBuf[:])
		buf.WriteString(value)
	}
	return buf.Bytes(), nil
}

// Decode parses the format Encode produces.
func (DefaultIptcParser) Decode(data []byte) (map[string]string, error) {
	records := make(map[string]string)
	pos := 0
	for pos+5 <= len(data) {
		if data[pos] != 0x1c || data[pos+1] != 0x02 {
			break
		}
		id := data[pos+2]
		size := int(binary.BigEndian.Uint16(data[pos+3 : pos+5]))
		pos += 5
		if pos+size > len(data) {
			return records, ErrCorruptedMetadata
		}
		if name, ok := iptcDatasetNames[id]; ok {
			records[name] = string(data[pos : pos+size])
		}
		pos += size
	}
	return records, nil
}

// DefaultXmpParser is the built-in XMP-packet-ish codec: a flat "key: value"
// line format wrapped in a generic xmpmeta envelope.
type DefaultXmpParser struct{}

func NewDefaultXmpParser() *DefaultXmpParser { return &DefaultXmpParser{} }

func (DefaultXmpParser) Encode(records map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("<x:xmpmeta xmlns:x=\"adobe:ns:meta/\">\n")
	for k, v := range records {
		fmt.Fprintf(&buf, "%s: %s\n", k, v)
	}
	buf.WriteString("</x:xmpmeta>\n")
	return buf.Bytes(), nil
}

func (DefaultXmpParser) Decode(packet []byte) (map[string]string, error) {
	records := make(map[string]string)
	for _, line := range strings.Split(string(packet), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "<") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		records[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return records, nil
}

// DefaultPhotoshop implements the minimal "8BIM" Image Resource Block
// splice/locate needed to carry an IPTC-NAA block inside
// Exif.Image.ImageResources (spec.md §4.3/§4.4).
type DefaultPhotoshop struct{}

func NewDefaultPhotoshop() *DefaultPhotoshop { return &DefaultPhotoshop{} }

const iptcResourceID = 0x0404

// LocateIptcIrb scans an 8BIM resource stream for the IPTC-NAA block and
// returns its header length (offset of the first data byte) and data
// length.
func (DefaultPhotoshop) LocateIptcIrb(data []byte) (hdrLen, dataLen int, err error) {
	pos := 0
	for pos+8 <= len(data) {
		if !bytes.Equal(data[pos:pos+4], []byte("8BIM")) {
			break
		}
		id := binary.BigEndian.Uint16(data[pos+4 : pos+6])
		nameLen := int(data[pos+6])
		nameTotal := nameLen + 1
		if nameTotal%2 != 0 {
			nameTotal++
		}
		sizeOff := pos + 6 + nameTotal
		if sizeOff+4 > len(data) {
			return 0, 0, ErrCorruptedMetadata
		}
		size := int(binary.BigEndian.Uint32(data[sizeOff : sizeOff+4]))
		dataOff := sizeOff + 4

		if id == iptcResourceID {
			if dataOff+size > len(data) {
				return 0, 0, ErrCorruptedMetadata
			}
			return dataOff, size, nil
		}

		padded := size
		if padded%2 != 0 {
			padded++
		}
		pos = dataOff + padded
	}
	return 0, 0, ErrTagNotFound
}

// SetIptcIrb returns data with its IPTC-NAA 8BIM block replaced (or
// appended, if none exists) by iptc.
func (Photoshop DefaultPhotoshop) SetIptcIrb(data []byte, iptc []byte) ([]byte, error) {
	var out bytes.Buffer

	hdrLen, dataLen, err := Photoshop.LocateIptcIrb(data)
	if err == ErrTagNotFound {
		out.Write(data)
		writeIrbBlock(&out, iptc)
		return out.Bytes(), nil
	} else if err != nil {
		return nil, err
	}

	blockStart := hdrLen - 10
	for blockStart > 0 && !bytes.Equal(data[blockStart:blockStart+4], []byte("8BIM")) {
		blockStart--
	}

	out.Write(data[:blockStart])
	writeIrbBlock(&out, iptc)

	padded := dataLen
	if padded%2 != 0 {
		padded++
	}
	tailStart := hdrLen + padded
	if tailStart < len(data) {
		out.Write(data[tailStart:])
	}

	return out.Bytes(), nil
}

func writeIrbBlock(buf *bytes.Buffer, payload []byte) {
	buf.WriteString("8BIM")
	var idBuf [2]byte
	binary.BigEndian.PutUint16(idBuf[:], iptcResourceID)
	buf.Write(idBuf[:])
	buf.WriteByte(0) // empty pascal-string name
	buf.WriteByte(0) // padding to even
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(payload)))
	buf.Write(sizeBuf[:])
	buf.Write(payload)
	if len(payload)%2 != 0 {
		buf.WriteByte(0)
	}
}

// decodeXMP is the DecoderFct for Exif.Image.XMLPacket (spec.md §4.3): add
// the raw Exif record, then trim to the first '<' and hand off to the XMP
// codec.
func decodeXMP(d *Decoder, n *Node) error {
	if err := d.decodeStdTiffEntry(n); err != nil {
		return err
	}

	if n.Value == nil || d.xmpParser == nil {
		return nil
	}

	raw := n.Value.Bytes
	trimmed := 0
	for trimmed < len(raw) && raw[trimmed] != '<' {
		trimmed++
	}
	if trimmed > 0 {
		decoderLogger.Warningf(nil, "trimmed %d leading byte(s) before XMP packet start", trimmed)
	}

	records, err := d.xmpParser.Decode(raw[trimmed:])
	if err != nil {
		return err
	}
	for k, v := range records {
		d.Xmp.Records[k] = v
	}
	d.Xmp.RawPacket = raw[trimmed:]

	return nil
}

// decodeIPTC is the DecoderFct for Exif.Image.IPTCNAA / Exif.Image.
// ImageResources (spec.md §4.3), guarded to run at most once per tree.
func decodeIPTC(d *Decoder, n *Node) error {
	if err := d.decodeStdTiffEntry(n); err != nil {
		return err
	}

	if d.decodedIptc || n.Value == nil || d.iptcParser == nil {
		return nil
	}

	if n.Tag == TagIPTCNAA {
		records, err := d.iptcParser.Decode(n.Value.Bytes)
		if err != nil {
			return nil
		}
		for k, v := range records {
			d.Iptc.Records[k] = v
		}
		d.decodedIptc = true
		return nil
	}

	// n.Tag == TagImageResources: locate the IPTC-NAA block inside the IRB.
	if d.photoshop == nil {
		return nil
	}
	hdrLen, dataLen, err := d.photoshop.LocateIptcIrb(n.Value.Bytes)
	if err != nil {
		return nil
	}
	if hdrLen+dataLen > len(n.Value.Bytes) {
		return ErrCorruptedMetadata
	}
	records, err := d.iptcParser.Decode(n.Value.Bytes[hdrLen : hdrLen+dataLen])
	if err != nil {
		return nil
	}
	for k, v := range records {
		d.Iptc.Records[k] = v
	}
	d.decodedIptc = true

	return nil
}
