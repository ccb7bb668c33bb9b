package exiv2

import (
	"encoding/binary"
	"math"

	"github.com/golang/geo/s2"
)

// decodeGPSCoordinate combines the three-rational degrees/minutes/seconds
// encoding of a GPS*Latitude/*Longitude tag into a signed float64, honoring
// the Ref tag's hemisphere sign.
func decodeGPSCoordinate(bo ByteOrder, dms []byte, ref string) (float64, bool) {
	if len(dms) != 24 {
		return 0, false
	}

	rat := func(off int) float64 {
		num := bo.Uint32(dms[off : off+4])
		den := bo.Uint32(dms[off+4 : off+8])
		if den == 0 {
			return 0
		}
		return float64(num) / float64(den)
	}

	deg := rat(0)
	min := rat(8)
	sec := rat(16)

	v := deg + min/60 + sec/3600

	if ref == "S" || ref == "W" {
		v = -v
	}

	return v, true
}

// decodeGPSPosition is the GPS specialization mentioned in SPEC_FULL.md §3:
// once both GPSLatitude and GPSLongitude have been read, it combines them
// into one s2.LatLng typed record ("Exif.GPSInfo.Position"), in addition to
// the raw per-tag records every entry still gets via decodeStdTiffEntry.
// Registered for GPSLongitude (0x0004) since GPSLatitude (0x0002) precedes
// it in every TIFF-valid GPSInfo directory (tag IDs are written in
// ascending order, spec.md GLOSSARY IFD), so the paired Latitude node is
// already materialized in the tree by the time this fires.
func decodeGPSPosition(d *Decoder, n *Node) error {
	if err := d.decodeStdTiffEntry(n); err != nil {
		return err
	}

	latNode, err := d.tree.Find(0x0002, GroupGPSInfo)
	if err != nil || latNode.Value == nil {
		return nil
	}
	latRefNode, err := d.tree.Find(0x0001, GroupGPSInfo)
	if err != nil || latRefNode.Value == nil {
		return nil
	}
	lngRefNode, err := d.tree.Find(0x0003, GroupGPSInfo)
	if err != nil || lngRefNode.Value == nil {
		return nil
	}

	bo := LittleEndian
	if n.ElByteOrder != nil {
		bo = *n.ElByteOrder
	}

	lat, ok := decodeGPSCoordinate(bo, latNode.Value.Bytes, asciiString(latRefNode.Value.Bytes))
	if !ok {
		return nil
	}
	lng, ok := decodeGPSCoordinate(bo, n.Value.Bytes, asciiString(lngRefNode.Value.Bytes))
	if !ok {
		return nil
	}

	ll := s2.LatLngFromDegrees(lat, lng)

	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], math.Float64bits(ll.Lat.Radians()))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(ll.Lng.Radians()))

	d.Exif.Add(&Exifdatum{
		GroupName: "GPSInfo",
		TagName:   "Position",
		Tag:       0xffe0,
		Group:     GroupGPSInfo,
		Value:     &Value{Type: TypeDouble, Count: 2, Bytes: buf},
	})

	return nil
}
