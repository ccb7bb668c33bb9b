package exiv2

import "testing"

func TestTiffHeaderRoundTrip(t *testing.T) {
	for _, bo := range []ByteOrder{LittleEndian, BigEndian} {
		header := WriteTiffHeader(bo, 8)
		gotBO, ifdOffset, ok := ParseTiffHeader(header)
		if !ok {
			t.Fatalf("%s: ParseTiffHeader rejected its own output", bo.Marker())
		}
		if gotBO.Marker() != bo.Marker() {
			t.Fatalf("want marker %s, got %s", bo.Marker(), gotBO.Marker())
		}
		if ifdOffset != 8 {
			t.Fatalf("want ifdOffset 8, got %d", ifdOffset)
		}
	}
}

func TestParseTiffHeaderRejectsBadMagic(t *testing.T) {
	bo := LittleEndian
	header := WriteTiffHeader(bo, 8)
	bo.PutUint16(header[2:4], 43) // corrupt the magic number

	if _, _, ok := ParseTiffHeader(header); ok {
		t.Fatalf("header with a bad magic number must be rejected")
	}
}

func TestParseTiffHeaderRejectsShortBuffer(t *testing.T) {
	if _, _, ok := ParseTiffHeader([]byte{0x49, 0x49}); ok {
		t.Fatalf("a buffer shorter than 8 bytes must be rejected")
	}
}

func TestParseTiffHeaderRejectsUnknownMarker(t *testing.T) {
	bad := []byte{'X', 'X', 0x2a, 0x00, 0x08, 0x00, 0x00, 0x00}
	if _, _, ok := ParseTiffHeader(bad); ok {
		t.Fatalf("an unrecognized byte-order marker must be rejected")
	}
}
