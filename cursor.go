package exiv2

// ByteCursor is the bounds-checked accessor the Reader uses for every
// pointer-arithmetic step on the source buffer (spec.md §8 "Bounds
// safety"). It replaces the teacher's IfdTagEnumerator/bytes.Buffer
// approach (which panics on a short read) with explicit range checks, since
// this engine must tolerate arbitrary adversarial input without ever
// reading outside data.
type ByteCursor struct {
	data []byte
}

// NewByteCursor wraps the full source buffer. All offsets passed to its
// methods are absolute positions within data.
func NewByteCursor(data []byte) *ByteCursor {
	return &ByteCursor{data: data}
}

// Len returns the size of the underlying buffer.
func (c *ByteCursor) Len() uint32 { return uint32(len(c.data)) }

// inBounds reports whether [pos, pos+size) lies within data without
// overflowing a uint32 addition.
func (c *ByteCursor) inBounds(pos, size uint32) bool {
	end := pos + size
	if end < pos { // overflow
		return false
	}
	return end <= uint32(len(c.data))
}

// Uint16At reads a big/little-endian uint16 at an absolute offset.
func (c *ByteCursor) Uint16At(pos uint32, bo ByteOrder) (uint16, error) {
	if !c.inBounds(pos, 2) {
		return 0, ErrCorruptedMetadata
	}
	return bo.Uint16(c.data[pos : pos+2]), nil
}

// Uint32At reads a big/little-endian uint32 at an absolute offset.
func (c *ByteCursor) Uint32At(pos uint32, bo ByteOrder) (uint32, error) {
	if !c.inBounds(pos, 4) {
		return 0, ErrCorruptedMetadata
	}
	return bo.Uint32(c.data[pos : pos+4]), nil
}

// Slice returns a borrowed slice [pos, pos+size) of data, or
// ErrCorruptedMetadata if it would escape the buffer.
func (c *ByteCursor) Slice(pos, size uint32) ([]byte, error) {
	if !c.inBounds(pos, size) {
		return nil, ErrCorruptedMetadata
	}
	return c.data[pos : pos+size], nil
}

// addOffset computes baseOffset+offset, failing with ErrArithmeticOverflow
// on a uint32 wrap (spec.md §5).
func addOffset(baseOffset, offset uint32) (uint32, error) {
	sum := baseOffset + offset
	if sum < baseOffset {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// mulSize computes count*typeSize, failing with ErrArithmeticOverflow on a
// uint32 wrap (spec.md §4.2 readTiffEntry).
func mulSize(count, typeSize uint32) (uint32, error) {
	if typeSize != 0 && count > (^uint32(0))/typeSize {
		return 0, ErrArithmeticOverflow
	}
	return count * typeSize, nil
}

// RawEntry is the 12-byte decoded form of one IFD entry slot, before it is
// wrapped in a typed Node (spec.md §4.2 readTiffEntry).
type RawEntry struct {
	Tag         uint16
	Type        TiffType
	Count       uint32
	ValueOffset uint32 // either the literal inline value field, or an offset
	Inline      []byte // the raw 4-byte value/offset field, for small values
}

// ReadEntrySlot reads the fixed 12-byte (tag, type, count, value/offset)
// record at pos (spec.md §4.2 "readTiffEntry").
func (c *ByteCursor) ReadEntrySlot(pos uint32, bo ByteOrder) (RawEntry, error) {
	if !c.inBounds(pos, 12) {
		return RawEntry{}, ErrCorruptedMetadata
	}

	tag, _ := c.Uint16At(pos, bo)
	typ, _ := c.Uint16At(pos+2, bo)
	count, _ := c.Uint32At(pos+4, bo)
	inline := make([]byte, 4)
	copy(inline, c.data[pos+8:pos+12])
	valueOffset := bo.Uint32(inline)

	return RawEntry{
		Tag:         tag,
		Type:        TiffType(typ),
		Count:       count,
		ValueOffset: valueOffset,
		Inline:      inline,
	}, nil
}
