package exiv2

// ParseTiffHeader reads the 8-byte TIFF header (byte-order marker, magic 42,
// first-IFD offset) that precedes the component tree this package parses.
func ParseTiffHeader(data []byte) (bo ByteOrder, ifdOffset uint32, ok bool) {
	if len(data) < 8 {
		return ByteOrder{}, 0, false
	}

	marker := string(data[0:2])
	bo, ok = ByteOrderFromMarker(marker)
	if !ok {
		return ByteOrder{}, 0, false
	}

	if bo.Uint16(data[2:4]) != 42 {
		return ByteOrder{}, 0, false
	}

	return bo, bo.Uint32(data[4:8]), true
}

// WriteTiffHeader encodes the 8-byte TIFF header pointing at firstIFDOffset.
func WriteTiffHeader(bo ByteOrder, firstIFDOffset uint32) []byte {
	out := make([]byte, 8)
	copy(out[0:2], bo.Marker())
	var tmp [4]byte
	bo.PutUint16(tmp[:2], 42)
	copy(out[2:4], tmp[:2])
	bo.PutUint32(out[4:8], firstIFDOffset)
	return out
}
