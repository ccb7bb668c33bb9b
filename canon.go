package exiv2

// canonAFInfo2Fields is the fixed record table for the Canon AFInfo2 split
// (spec.md §4.3), surfaced through TagInfo.TagList("Canon") (spec.md §6).
var canonAFInfo2Fields = []TagName{
	{0x2600, "AFInfoSize"},
	{0x2601, "AFAreaMode"},
	{0x2602, "AFNumPoints"},
	{0x2603, "AFValidPoints"},
	{0x2604, "AFCanonImageWidth"},
	{0x2605, "AFCanonImageHeight"},
	{0x2606, "AFImageWidth"},
	{0x2607, "AFImageHeight"},
	{0x2608, "AFAreaWidth"},
	{0x2609, "AFAreaHeight"},
	{0x260a, "AFAreaXPositions"},
	{0x260b, "AFAreaYPositions"},
	{0x260c, "AFPointsInFocus"},
	{0x260d, "AFPointsSelected"},
	{0x260e, "AFPointsAvailable"},
}

type canonAFInfo2Record struct {
	tag     uint16
	signed  bool
	isArray bool // true => length is nPoints/nMasks-dependent, chosen by arrayOf below
}

// arrayOf reports how many uint16 elements a given AFInfo2 record occupies.
func (r canonAFInfo2Record) arrayOf(nPoints, nMasks uint16) int {
	if !r.isArray {
		return 1
	}
	switch r.tag {
	case 0x260a, 0x260b:
		return int(nPoints)
	default:
		return int(nMasks)
	}
}

var canonAFInfo2Records = []canonAFInfo2Record{
	{0x2600, false, false},
	{0x2601, false, false},
	{0x2602, false, false},
	{0x2603, false, false},
	{0x2604, false, false},
	{0x2605, false, false},
	{0x2606, false, false},
	{0x2607, false, false},
	{0x2608, false, false},
	{0x2609, false, false},
	{0x260a, true, true},
	{0x260b, true, true},
	{0x260c, false, true},
	{0x260d, false, true},
	{0x260e, false, true},
}

func ceilDiv(a, b uint16) uint16 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// decodeCanonAFInfo2 is the DecoderFct for Canon's packed AFInfo2 tag
// (spec.md §4.3).
func decodeCanonAFInfo2(d *Decoder, n *Node) error {
	if n.Value == nil || n.Value.Type != TypeShort || n.Value.Count < 3 {
		return d.decodeStdTiffEntry(n)
	}

	payload := n.Value.Bytes
	count := n.Value.Count
	if uint32(len(payload)) < count*2 {
		return d.decodeStdTiffEntry(n)
	}

	bo := LittleEndian
	if n.ElByteOrder != nil {
		bo = *n.ElByteOrder
	}

	u := make([]uint16, count)
	for i := uint32(0); i < count; i++ {
		u[i] = bo.Uint16(payload[i*2 : i*2+2])
	}

	if payload[0] != byte(count*2) && u[0] != uint16(count*2) {
		return d.decodeStdTiffEntry(n)
	}

	nPoints := u[2]
	nMasks := ceilDiv(nPoints, 16)

	cursor := uint32(0)
	for _, rec := range canonAFInfo2Records {
		elems := rec.arrayOf(nPoints, nMasks)
		if elems < 0 || cursor+uint32(elems) > count {
			break
		}

		vb := make([]byte, elems*2)
		for i := 0; i < elems; i++ {
			copy(vb[i*2:i*2+2], payload[(cursor+uint32(i))*2:(cursor+uint32(i))*2+2])
		}
		cursor += uint32(elems)

		vtype := TypeShort
		if rec.signed {
			vtype = TypeSShort
		}

		name := d.tagDisplayName("Canon", rec.tag, "")
		if name == "" {
			for _, f := range canonAFInfo2Fields {
				if f.Tag == rec.tag {
					name = f.Name
					break
				}
			}
		}

		d.Exif.Add(&Exifdatum{
			GroupName: "Canon",
			TagName:   name,
			Tag:       rec.tag,
			Group:     GroupCanon,
			Value:     &Value{Type: vtype, Count: uint32(elems), Bytes: vb},
		})
	}

	return nil
}

// encodeCanonAFInfo2 is the EncoderFct counterpart to decodeCanonAFInfo2: it
// re-packs the 15 synthesized sub-tag records back into one Short array,
// undoing the split. If none of the sub-tags were ever split out (a plain
// decode fallback), d's own value is used unchanged.
func encodeCanonAFInfo2(e *Encoder, n *Node, d *Exifdatum) (bool, error) {
	subs := make(map[uint16]*Exifdatum, len(canonAFInfo2Records))
	for _, rec := range canonAFInfo2Records {
		if sd, ok := e.Exif.Take(rec.tag, GroupCanon, 0); ok {
			subs[rec.tag] = sd
		}
	}

	if len(subs) == 0 {
		n.Value = d.Value.Clone()
		return true, nil
	}

	bo := e.curBO()
	nPoints := uint16(0)
	if nd, ok := subs[0x2602]; ok && len(nd.Value.Bytes) >= 2 {
		nPoints = bo.Uint16(nd.Value.Bytes)
	}
	nMasks := ceilDiv(nPoints, 16)

	var payload []byte
	count := uint32(0)
	for _, rec := range canonAFInfo2Records {
		sd, ok := subs[rec.tag]
		if !ok {
			continue
		}
		elems := rec.arrayOf(nPoints, nMasks)
		want := elems * 2
		vb := sd.Value.Bytes
		if len(vb) < want {
			grown := make([]byte, want)
			copy(grown, vb)
			vb = grown
		}
		payload = append(payload, vb[:want]...)
		count += uint32(elems)
	}

	n.Value = &Value{Type: TypeShort, Count: count, Bytes: payload}
	return true, nil
}
