package exiv2

import (
	"fmt"

	"github.com/dsoprea/go-logging"
)

var (
	decoderLogger = log.NewLogger("exiv2.decoder")
)

// Decoder is the §4.3 traversal: it walks an existing tree and emits typed
// records into three output stores, using a make-specific DecoderRegistry
// for per-tag specializations (XMP, IPTC, Canon AFInfo2, ...).
type Decoder struct {
	BaseVisitor

	Exif *ExifStore
	Iptc *IptcStore
	Xmp  *XmpStore

	tree *Tree
	make string

	decoders   DecoderRegistry
	tagInfo    TagInfo
	iptcParser IptcParser
	xmpParser  XmpParser
	photoshop  Photoshop

	// decodedIptc memoizes "IPTC decoded at most once per tree" (spec.md
	// §4.3), kept as Decoder-scoped state per the design note in §9.
	decodedIptc bool
}

// NewDecoder constructs a Decoder over tree, resolving `make` from
// (0x010f, IFD0) as spec.md §4.3 describes.
func NewDecoder(tree *Tree, decoders DecoderRegistry, tagInfo TagInfo, iptcParser IptcParser, xmpParser XmpParser, photoshop Photoshop) *Decoder {
	make := ""
	if n, err := tree.Find(TagMake, GroupIFD0); err == nil && n.Value != nil {
		make = asciiString(n.Value.Bytes)
	}

	return &Decoder{
		Exif:       NewExifStore(),
		Iptc:       NewIptcStore(),
		Xmp:        NewXmpStore(),
		tree:       tree,
		make:       make,
		decoders:   decoders,
		tagInfo:    tagInfo,
		iptcParser: iptcParser,
		xmpParser:  xmpParser,
		photoshop:  photoshop,
	}
}

// Decode walks the whole tree.
func (d *Decoder) Decode() error {
	g := NewGates()
	return Walk(d.tree.Root, d, &g)
}

func asciiString(b []byte) string {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return string(b[:i])
}

// tagDisplayName returns the caller-supplied fallback (decodeStdTiffEntry
// passes a hex literal) when no TagInfo dictionary entry exists; human-readable dictionaries are explicitly external to this
// core (spec.md §1 EXCLUDED).
func (d *Decoder) tagDisplayName(familyName string, tag uint16, fallback string) string {
	if d.tagInfo == nil {
		return fallback
	}
	names, err := d.tagInfo.TagList(familyName)
	if err != nil {
		return fallback
	}
	for _, n := range names {
		if n.Tag == tag {
			return n.Name
		}
	}
	return fallback
}

// decodeNode is decodeTiffEntry (spec.md §4.3): consult the registry and
// invoke the matched DecoderFct; a nil result falls back to
// decodeStdTiffEntry. No registry answer makes a tag be skipped.
func (d *Decoder) decodeNode(n *Node) error {
	fct := d.decoders.Find(d.make, n.Tag, n.Group)
	if fct == nil {
		return d.decodeStdTiffEntry(n)
	}
	return fct(d, n)
}

// decodeStdTiffEntry adds an Exif record keyed by (tag, group) with the
// node's Idx preserved (spec.md §4.3).
func (d *Decoder) decodeStdTiffEntry(n *Node) error {
	if n.Value == nil {
		return nil
	}

	name := d.tagDisplayName(string(n.Group), n.Tag, fmt.Sprintf("0x%04x", n.Tag))

	d.Exif.Add(&Exifdatum{
		GroupName: string(n.Group),
		TagName:   name,
		Tag:       n.Tag,
		Group:     n.Group,
		Idx:       n.Idx,
		Value:     n.Value.Clone(),
	})

	return nil
}

func (d *Decoder) VisitEntry(n *Node) error      { return d.decodeNode(n) }
func (d *Decoder) VisitDataEntry(n *Node) error  { return d.decodeNode(n) }
func (d *Decoder) VisitImageEntry(n *Node) error { return d.decodeNode(n) }
func (d *Decoder) VisitSizeEntry(n *Node) error  { return d.decodeNode(n) }

func (d *Decoder) VisitMnEntry(n *Node) error {
	if n.Mn == nil {
		// Opaque maker note: decode it as a plain blob entry.
		return d.decodeNode(n)
	}
	return nil
}

func (d *Decoder) VisitIfdMakernote(n *Node) error {
	marker := n.ByteOrder.Marker()

	d.Exif.Add(&Exifdatum{
		GroupName: "MakerNote",
		TagName:   "Offset",
		Tag:       0,
		Group:     "MakerNote",
		Value:     &Value{Type: TypeLong, Count: 1, Bytes: encodeUint32(n.MnOffset, n.ByteOrder)},
	})
	d.Exif.Add(&Exifdatum{
		GroupName: "MakerNote",
		TagName:   "ByteOrder",
		Tag:       1,
		Group:     "MakerNote",
		Value:     &Value{Type: TypeASCII, Count: uint32(len(marker) + 1), Bytes: append([]byte(marker), 0)},
	})

	return nil
}

// VisitBinaryArray falls back to plain-entry decoding when the array wasn't
// successfully decoded (no config, or initialization failed), per spec.md
// §4.3.
func (d *Decoder) VisitBinaryArray(n *Node) error {
	if !n.Decoded {
		return d.decodeNode(n)
	}
	return nil
}

func (d *Decoder) VisitBinaryElement(n *Node) error {
	return d.decodeNode(n)
}

func encodeUint32(v uint32, bo ByteOrder) []byte {
	b := make([]byte, 4)
	bo.PutUint32(b, v)
	return b
}
