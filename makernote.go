package exiv2

import (
	"bytes"
)

// defaultMakernoteFactory is the MakernoteFactory (spec.md §6) this module
// ships, dispatching on Make prefix via the YAML vendor table in config.go
// (the systems-language-friendly replacement for the original's per-vendor
// .cpp translation units, see SPEC_FULL.md §4).
type defaultMakernoteFactory struct {
	cfg *ConfigRegistry
}

func NewDefaultMakernoteFactory(cfg *ConfigRegistry) *defaultMakernoteFactory {
	return &defaultMakernoteFactory{cfg: cfg}
}

// Create returns an IfdMakernote node whose Vendor-group (NewGroup, reused
// from the SubIfd field since only one of the two kinds is ever live on a
// Node at a time) names which header parser and tag group its inner
// Directory uses. The header itself isn't parsed until Reader visits the
// node (spec.md §4.2 IfdMakernote step), since that's where the
// start/remaining-bytes context lives.
func (f *defaultMakernoteFactory) Create(tag uint16, mnGroup Group, make string, data []byte, size uint32, byteOrder ByteOrder) (*Node, bool, error) {
	vendorGroup, ok := f.cfg.VendorGroup(make)
	if !ok {
		return nil, false, nil
	}

	mn := &Node{
		Kind:      KindIfdMakernote,
		Tag:       tag,
		Group:     mnGroup,
		ByteOrder: byteOrder,
		NewGroup:  vendorGroup,
	}

	return mn, true, nil
}

// parseMakernoteHeader implements spec.md §4.2's "readHeader(start,
// remaining, byteOrder)" for the three vendors SPEC_FULL.md §4 names.
// baseOffset is relative to the start of the maker note blob (data[0]) and
// ifdOffset is relative to baseOffset. A vendor with no header
// (headerLen 0) keeps the enclosing image's base offset in the Reader.
func parseMakernoteHeader(vendor Group, data []byte, outerByteOrder ByteOrder) (ifdOffset, baseOffset uint32, bo ByteOrder, headerLen uint32, ok bool) {
	switch vendor {
	case GroupCanon, GroupSony1:
		// No header: a bare IFD at the start of the blob, same byte order
		// and base offset as the enclosing image (mirrors
		// rwcarlsen/goexif's mknote.loadCanon).
		return 0, 0, outerByteOrder, 0, true

	case GroupNikon3:
		// "Nikon\0" + 2-byte version + 2-byte pad, then an embedded TIFF
		// header (byte-order marker, magic, ifd offset) relative to byte 10
		// (mirrors rwcarlsen/goexif's mknote.loadNikonV3).
		if len(data) < 18 {
			return 0, 0, ByteOrder{}, 0, false
		}
		if !bytes.Equal(data[0:6], []byte("Nikon\x00")) {
			return 0, 0, ByteOrder{}, 0, false
		}

		marker := string(data[10:12])
		innerBo, known := ByteOrderFromMarker(marker)
		if !known {
			return 0, 0, ByteOrder{}, 0, false
		}

		off := innerBo.Uint32(data[14:18])
		return off, 10, innerBo, 18, true

	default:
		return 0, 0, ByteOrder{}, 0, false
	}
}
