package exiv2

// entryval describes one 12-byte IFD entry slot for the buffer builders
// below. Exactly one of inline/outline should be set: inline for a value
// that fits in the 4-byte value/offset field, outline for anything bigger
// (appendDirectory places it right after the directory and patches the
// offset field).
type entryval struct {
	tag     uint16
	typ     TiffType
	count   uint32
	inline  []byte
	outline []byte
}

// appendDirectory appends one IFD-shaped directory (header, entries, next
// pointer) to *buf, plus any outline values it needs, and returns the
// directory's start offset. Base offset is always 0 in these tests (the
// Reader's root base offset), so every stored offset is an absolute
// position within *buf.
func appendDirectory(buf *[]byte, bo ByteOrder, entries []entryval, next uint32) uint32 {
	dirStart := uint32(len(*buf))
	n := len(entries)
	dirSize := 2 + uint32(n)*12 + 4
	*buf = append(*buf, make([]byte, dirSize)...)
	bo.PutUint16((*buf)[dirStart:dirStart+2], uint16(n))

	type fixup struct {
		pos uint32
		idx int
	}
	var fixups []fixup

	pos := dirStart + 2
	for i, e := range entries {
		bo.PutUint16((*buf)[pos:pos+2], e.tag)
		bo.PutUint16((*buf)[pos+2:pos+4], uint16(e.typ))
		bo.PutUint32((*buf)[pos+4:pos+8], e.count)
		if len(e.outline) > 0 {
			fixups = append(fixups, fixup{pos + 8, i})
		} else if len(e.inline) > 0 {
			copy((*buf)[pos+8:pos+12], e.inline)
		}
		pos += 12
	}
	bo.PutUint32((*buf)[pos:pos+4], next)

	for _, f := range fixups {
		off := uint32(len(*buf))
		bo.PutUint32((*buf)[f.pos:f.pos+4], off)
		*buf = append(*buf, entries[f.idx].outline...)
	}

	return dirStart
}

// put4 encodes v as a 4-byte inline field, the form a count==1 Long/SubIfd
// entry's own value slot holds.
func put4(bo ByteOrder, v uint32) []byte {
	b := make([]byte, 4)
	bo.PutUint32(b, v)
	return b
}

func put2(bo ByteOrder, v uint16) []byte {
	b := make([]byte, 4)
	bo.PutUint16(b, v)
	return b
}

func asciiVal(s string) []byte {
	return append([]byte(s), 0)
}

func newTestSchema() (*defaultSchema, *ConfigRegistry) {
	cfg := LoadDefaultConfig()
	return NewDefaultSchema(cfg), cfg
}
