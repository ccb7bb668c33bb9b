package exiv2

import "testing"

func readTree(t *testing.T, bo ByteOrder, entries []entryval) *Tree {
	t.Helper()
	schema, _ := newTestSchema()
	buf := make([]byte, 8)
	root := appendDirectory(&buf, bo, entries, 0)
	r := NewReader(buf, bo, schema, NewDefaultMakernoteFactory(LoadDefaultConfig()))
	tree, err := r.Read(root)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return tree
}

func newTestDecoder(tree *Tree) *Decoder {
	return NewDecoder(
		tree,
		NewDefaultDecoderRegistry(),
		NewDefaultTagInfo(),
		NewDefaultIptcParser(),
		NewDefaultXmpParser(),
		NewDefaultPhotoshop(),
	)
}

// Scenario 1 (decode half): the Make entry decodes to a plain Exif record
// whose value round-trips back to "Test". The default TagInfo/Schema this
// module ships have no "Image" group alias or "Make" display name wired in
// (that naming is explicitly external, per Header/TagInfo's role) so the
// record is keyed by its raw (tag, group) rather than by the literal string
// "Exif.Image.Make".
func TestDecodeMinimalIFDMake(t *testing.T) {
	tree := readTree(t, LittleEndian, []entryval{
		{tag: TagMake, typ: TypeASCII, count: 5, outline: asciiVal("Test")},
	})

	d := newTestDecoder(tree)
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var found *Exifdatum
	for _, rec := range d.Exif.All() {
		if rec.Tag == TagMake && rec.Group == GroupIFD0 {
			found = rec
			break
		}
	}
	if found == nil {
		t.Fatalf("Make record not decoded")
	}
	if got := asciiString(found.Value.Bytes); got != "Test" {
		t.Fatalf("want Test, got %q", got)
	}
}

// Scenario 6 (decode half): a recognized maker note contributes a synthetic
// "Exif.MakerNote.ByteOrder" record with the inner directory's own marker.
func TestDecodeMakernoteByteOrderRecord(t *testing.T) {
	outer := BigEndian
	inner := LittleEndian

	var mnBuf []byte
	mnBuf = append(mnBuf, []byte("Nikon\x00")...)
	mnBuf = append(mnBuf, 0x02, 0x10, 0x00, 0x00)
	mnBuf = append(mnBuf, []byte(inner.Marker())...)
	magic := make([]byte, 2)
	inner.PutUint16(magic, 42)
	mnBuf = append(mnBuf, magic...)
	mnBuf = append(mnBuf, put4(inner, 8)...)
	appendDirectory(&mnBuf, inner, []entryval{
		{tag: 0x0098, typ: TypeShort, count: 1, inline: put2(inner, 7)},
	}, 0)

	tree := readTree(t, outer, []entryval{
		{tag: TagMake, typ: TypeASCII, count: 6, outline: asciiVal("NIKON")},
		{tag: TagMakerNote, typ: TypeUndefined, count: uint32(len(mnBuf)), outline: mnBuf},
	})

	d := newTestDecoder(tree)
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var boRecord *Exifdatum
	for _, rec := range d.Exif.All() {
		if rec.Key() == "Exif.MakerNote.ByteOrder" {
			boRecord = rec
			break
		}
	}
	if boRecord == nil {
		t.Fatalf("Exif.MakerNote.ByteOrder not emitted")
	}
	if got := asciiString(boRecord.Value.Bytes); got != "II" {
		t.Fatalf("want II, got %q", got)
	}
}

// The Canon AFInfo2 structured decoder splits a packed Short array into its
// 15 synthetic sub-tag records.
func TestDecodeCanonAFInfo2Split(t *testing.T) {
	bo := LittleEndian

	// nPoints=1 (index 2) => nMasks=ceilDiv(1,16)=1; every record contributes
	// exactly 1 element, so the payload is 15 uint16s.
	vals := make([]uint16, 15)
	vals[0] = uint16(len(vals) * 2) // header self-size, checked by the decoder
	vals[2] = 1                      // nPoints
	payload := make([]byte, len(vals)*2)
	for i, v := range vals {
		bo.PutUint16(payload[i*2:i*2+2], v)
	}

	tree := NewTree(GroupCanon)
	afInfo2 := &Node{Kind: KindEntry, Tag: 0x0026, Group: GroupCanon, Value: &Value{Type: TypeShort, Count: uint32(len(vals)), Bytes: payload}}
	if err := Attach(tree.Root, afInfo2); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	afInfo2.Idx = tree.NextIdx(GroupCanon)

	d := newTestDecoder(tree)
	if err := decodeCanonAFInfo2(d, afInfo2); err != nil {
		t.Fatalf("decodeCanonAFInfo2: %v", err)
	}

	count := 0
	for _, rec := range d.Exif.All() {
		if rec.Group == GroupCanon {
			count++
		}
	}
	if count != len(canonAFInfo2Records) {
		t.Fatalf("want %d split records, got %d", len(canonAFInfo2Records), count)
	}
}

// GPS latitude/longitude combine into one derived "Exif.GPSInfo.Position"
// record once both coordinates and their hemisphere refs are present.
func TestDecodeGPSPosition(t *testing.T) {
	bo := LittleEndian

	degMinSec := func(deg, min, sec uint32) []byte {
		b := make([]byte, 24)
		bo.PutUint32(b[0:4], deg)
		bo.PutUint32(b[4:8], 1)
		bo.PutUint32(b[8:12], min)
		bo.PutUint32(b[12:16], 1)
		bo.PutUint32(b[16:20], sec*1000)
		bo.PutUint32(b[20:24], 1000)
		return b
	}

	// Building a full IFD0->GPSInfo SubIfd chain through the Reader isn't
	// needed to exercise decodeGPSPosition's combination logic: the decoder
	// only ever looks up siblings within the same tree by (tag, group), so a
	// standalone GPSInfo-rooted tree is sufficient.
	gpsTree := NewTree(GroupGPSInfo)
	latRef := &Node{Kind: KindEntry, Tag: 0x0001, Group: GroupGPSInfo, Value: &Value{Type: TypeASCII, Count: 2, Bytes: asciiVal("N")}}
	lat := &Node{Kind: KindEntry, Tag: 0x0002, Group: GroupGPSInfo, Value: &Value{Type: TypeRational, Count: 3, Bytes: degMinSec(37, 46, 30)}}
	lngRef := &Node{Kind: KindEntry, Tag: 0x0003, Group: GroupGPSInfo, Value: &Value{Type: TypeASCII, Count: 2, Bytes: asciiVal("W")}}
	lng := &Node{Kind: KindEntry, Tag: 0x0004, Group: GroupGPSInfo, Value: &Value{Type: TypeRational, Count: 3, Bytes: degMinSec(122, 25, 6)}}
	for _, n := range []*Node{latRef, lat, lngRef, lng} {
		if err := Attach(gpsTree.Root, n); err != nil {
			t.Fatalf("Attach: %v", err)
		}
		n.Idx = gpsTree.NextIdx(GroupGPSInfo)
	}
	lng.ElByteOrder = &bo

	d := newTestDecoder(gpsTree)
	if err := d.Decode(); err != nil {
		t.Fatalf("Decode: %v", err)
	}

	var pos *Exifdatum
	for _, rec := range d.Exif.All() {
		if rec.Key() == "Exif.GPSInfo.Position" {
			pos = rec
			break
		}
	}
	if pos == nil {
		t.Fatalf("Exif.GPSInfo.Position not derived")
	}
	if pos.Value.Type != TypeDouble || pos.Value.Count != 2 {
		t.Fatalf("unexpected position value %+v", pos.Value)
	}
}
