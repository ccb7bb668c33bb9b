package exiv2

// Encoder is the §4.4 traversal: it drains an ExifStore/IptcStore/XmpStore
// back into an existing tree. A record matching an existing node patches
// that node's Value (the non-intrusive path); anything left over after the
// walk is grafted onto the tree via PathFactory (the intrusive path). Unlike
// Reader, Encoder reuses the shared Visitor/Walk dispatch, since here it
// really is walking an existing tree rather than building one.
type Encoder struct {
	BaseVisitor

	Exif *ExifStore
	Iptc *IptcStore
	Xmp  *XmpStore

	tree *Tree
	make string

	encoders      EncoderRegistry
	pathFactory   PathFactory
	header        Header
	iptcParser    IptcParser
	xmpParser     XmpParser
	photoshop     Photoshop
	primaryGroups map[Group]bool

	// boStack mirrors Reader's byte-order scoping: VisitIfdMakernote/
	// VisitIfdMakernoteEnd push/pop it as Walk enters/leaves a maker note's
	// inner directory, so per-tag encoders (Canon AFInfo2) pack integers
	// with the byte order that subtree was actually written in.
	boStack []ByteOrder
}

// NewEncoder constructs an Encoder that will drain exif/iptc/xmp back into
// tree. primaryGroups names the groups the Copier/intrusive path treat as
// "this container's own image tags" (spec.md §4.4/§4.5).
func NewEncoder(tree *Tree, exif *ExifStore, iptc *IptcStore, xmp *XmpStore, encoders EncoderRegistry, pathFactory PathFactory, header Header, iptcParser IptcParser, xmpParser XmpParser, photoshop Photoshop, primaryGroups map[Group]bool) *Encoder {
	make := ""
	if n, err := tree.Find(TagMake, GroupIFD0); err == nil && n.Value != nil {
		make = asciiString(n.Value.Bytes)
	}

	bo := LittleEndian
	if header != nil {
		bo = header.ByteOrder()
	}

	return &Encoder{
		Exif:          exif,
		Iptc:          iptc,
		Xmp:           xmp,
		tree:          tree,
		make:          make,
		encoders:      encoders,
		pathFactory:   pathFactory,
		header:        header,
		iptcParser:    iptcParser,
		xmpParser:     xmpParser,
		photoshop:     photoshop,
		primaryGroups: primaryGroups,
		boStack:       []ByteOrder{bo},
	}
}

func (e *Encoder) curBO() ByteOrder { return e.boStack[len(e.boStack)-1] }

// Dirty reports the aggregate encoder dirtiness (spec.md §4.4 "dirty()"):
// true iff some node in the tree was explicitly flagged dirty, or the
// ExifStore still holds an unconsumed record (only possible before Encode
// has run graftRemaining to completion).
func (e *Encoder) Dirty() bool {
	if e.Exif.Len() > 0 {
		return true
	}
	return treeDirty(e.tree.Root)
}

func treeDirty(n *Node) bool {
	if n == nil {
		return false
	}
	if n.Dirty() {
		return true
	}
	for _, c := range n.Children {
		if treeDirty(c) {
			return true
		}
	}
	if n.Kind == KindMnEntry && n.Mn != nil && treeDirty(n.Mn) {
		return true
	}
	if n.Kind == KindIfdMakernote && n.Inner != nil && treeDirty(n.Inner) {
		return true
	}
	if n.HasNext && n.Next != nil && treeDirty(n.Next) {
		return true
	}
	return false
}

// Encode runs encodeIptc/encodeXmp preprocessing, the non-intrusive patch
// walk, and finally grafts whatever remains in the ExifStore (spec.md §4.4).
func (e *Encoder) Encode() error {
	if e.iptcParser != nil && e.photoshop != nil {
		if err := e.encodeIptc(); err != nil {
			return err
		}
	}
	if e.xmpParser != nil {
		if err := e.encodeXmp(); err != nil {
			return err
		}
	}

	g := NewGates()
	if err := Walk(e.tree.Root, e, &g); err != nil {
		return err
	}

	return e.graftRemaining()
}

// encodeIptc re-serializes the IptcStore and splices it into
// Exif.Image.ImageResources's 8BIM block, replacing whatever stale
// ImageResources/IPTCNAA records the decoder produced (spec.md §4.4).
func (e *Encoder) encodeIptc() error {
	iptcBytes, err := e.iptcParser.Encode(e.Iptc.Records)
	if err != nil {
		return err
	}

	node, ferr := e.tree.Find(TagImageResources, GroupIFD0)
	var existing []byte
	idx := 0
	if ferr == nil && node.Value != nil {
		existing = node.Value.Bytes
		idx = node.Idx
	}

	newResources, serr := e.photoshop.SetIptcIrb(existing, iptcBytes)
	if serr != nil {
		return serr
	}

	e.Exif.RemoveAll(TagImageResources, GroupIFD0)
	e.Exif.RemoveAll(TagIPTCNAA, GroupIFD0)
	e.Exif.Add(&Exifdatum{
		GroupName: "IFD0",
		TagName:   "ImageResources",
		Tag:       TagImageResources,
		Group:     GroupIFD0,
		Idx:       idx,
		Value:     &Value{Type: TypeUndefined, Count: uint32(len(newResources)), Bytes: newResources},
	})

	return nil
}

// encodeXmp re-emits the XmpStore's RawPacket verbatim when Records is empty,
// else re-serializes Records through the XmpParser (spec.md §4.4). Records
// filled by the Decoder count as non-empty, so a decoded packet is
// re-serialized rather than copied.
func (e *Encoder) encodeXmp() error {
	var packet []byte
	var err error

	if len(e.Xmp.Records) == 0 && e.Xmp.RawPacket != nil {
		packet = e.Xmp.RawPacket
	} else {
		packet, err = e.xmpParser.Encode(e.Xmp.Records)
		if err != nil {
			return err
		}
	}

	node, ferr := e.tree.Find(TagXMLPacket, GroupIFD0)
	idx := 0
	if ferr == nil {
		idx = node.Idx
	}

	e.Exif.RemoveAll(TagXMLPacket, GroupIFD0)
	e.Exif.Add(&Exifdatum{
		GroupName: "IFD0",
		TagName:   "XMLPacket",
		Tag:       TagXMLPacket,
		Group:     GroupIFD0,
		Idx:       idx,
		Value:     &Value{Type: TypeByte, Count: uint32(len(packet)), Bytes: packet},
	})

	return nil
}

// encodeNode is findEncoderFct dispatch (spec.md §4.4): take the matching
// record (by tag/group, preferring an exact Idx match), let a specialized
// EncoderFct handle it if one is registered, else apply the default patch.
func (e *Encoder) encodeNode(n *Node) error {
	d, ok := e.Exif.Take(n.Tag, n.Group, n.Idx)
	if !ok {
		return nil
	}

	if fct := e.encoders.Find(e.make, n.Tag, n.Group); fct != nil {
		handled, err := fct(e, n, d)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	e.applyPatch(n, d)
	return nil
}

// applyPatch is the default per-kind encoder (spec.md §4.4 "grow or update"):
// the value is always updated, but a node is only flagged dirty when the new
// value no longer fits the slot the old one occupied (spec.md §8 "dirty iff
// it grew beyond its on-disk capacity"). Capacity is the old out-of-line
// allocation when the old value was out-of-line (oldSize>4), else the fixed
// 4-byte inline field every entry's value/offset slot provides. A value that
// shrinks, or one that grows but still fits its existing out-of-line
// allocation, is patched in place and stays clean.
func (e *Encoder) applyPatch(n *Node, d *Exifdatum) {
	oldSize := n.Value.Size()
	capacity := oldSize
	if capacity < 4 {
		capacity = 4
	}
	n.Value = d.Value.Clone()
	if n.Value.Size() > capacity {
		n.SetDirty(true)
	}
}

// VisitDirectoryNext is the tail half of a directory visit (spec.md §4.4):
// once every child has been walked, its 12-byte on-disk entry header is
// rewritten. tiffType/count already track n.Value (applyPatch/graftRemaining
// keep them in sync via Clone), so the only remaining bookkeeping is
// relocating a value that now fits inline back into the entry's own 4-byte
// slot when it used to live out-of-line; a byte-level serializer reading
// Offset afterward is what actually zero-fills the abandoned allocation.
func (e *Encoder) VisitDirectoryNext(n *Node) error {
	for _, c := range n.Children {
		rewriteEntryHeader(c)
	}
	return nil
}

func rewriteEntryHeader(c *Node) {
	switch c.Kind {
	case KindEntry, KindDataEntry, KindImageEntry, KindSizeEntry, KindMnEntry:
	default:
		return
	}
	if c.Value == nil || !c.HasStart || c.Dirty() {
		return
	}

	inlineSlot := c.Start + 8
	if c.Offset != inlineSlot && c.Value.Size() <= 4 {
		c.Offset = inlineSlot
	}
}

func (e *Encoder) VisitEntry(n *Node) error      { return e.encodeNode(n) }
func (e *Encoder) VisitDataEntry(n *Node) error  { return e.encodeNode(n) }
func (e *Encoder) VisitImageEntry(n *Node) error { return e.encodeNode(n) }
func (e *Encoder) VisitSizeEntry(n *Node) error  { return e.encodeNode(n) }

func (e *Encoder) VisitMnEntry(n *Node) error {
	if n.Mn == nil {
		return e.encodeNode(n)
	}
	return nil
}

func (e *Encoder) VisitIfdMakernote(n *Node) error {
	e.boStack = append(e.boStack, n.ByteOrder)
	return nil
}

func (e *Encoder) VisitIfdMakernoteEnd(n *Node) error {
	e.boStack = e.boStack[:len(e.boStack)-1]
	return nil
}

func (e *Encoder) VisitBinaryArray(n *Node) error {
	if !n.Decoded {
		return e.encodeNode(n)
	}
	return nil
}

func (e *Encoder) VisitBinaryElement(n *Node) error { return e.encodeNode(n) }

// VisitBinaryArrayEnd re-encrypts a decoded BinaryArray's children back into
// OriginalData (spec.md §4.4 visitBinaryArrayEnd), mapping the config's
// decipher name to its enciphering counterpart. A missing encipher or a
// child that no longer fits its slot falls back to the dirty intrusive path
// rather than producing corrupt bytes.
func (e *Encoder) VisitBinaryArrayEnd(n *Node) error {
	if !n.Decoded || n.Cfg == nil {
		return nil
	}

	size := n.Cfg.Size
	for _, c := range n.Children {
		width, _ := TypeSize(c.ElType)
		if c.Value.Size() > width*c.ElCount {
			coreLogger.Warningf(nil, "%s/0x%04x: element at offset %d no longer fits its slot; leaving original bytes", n.Group, n.Tag, c.ElOffset)
			n.SetDirty(true)
			return nil
		}
		if end := c.ElOffset + c.Value.Size(); end > size {
			size = end
		}
	}
	raw := make([]byte, size)
	for _, c := range n.Children {
		end := c.ElOffset + c.Value.Size()
		copy(raw[c.ElOffset:end], c.Value.Bytes)
	}

	if n.Cfg.Crypt != "" {
		encipherName, ok := decipherToEncipher[n.Cfg.Crypt]
		var cipher CipherFct
		if ok {
			cipher, ok = findCipher(encipherName)
		}
		if !ok {
			coreLogger.Warningf(nil, "%s/0x%04x: no encipher registered for %q; leaving original bytes", n.Group, n.Tag, n.Cfg.Crypt)
			n.SetDirty(true)
			return nil
		}

		enc, eerr := cipher(n.Tag, raw, uint32(len(raw)), e.tree.Root)
		if eerr != nil {
			coreLogger.Warningf(nil, "%s/0x%04x: encipher error: %v; leaving original bytes", n.Group, n.Tag, eerr)
			n.SetDirty(true)
			return nil
		}
		raw = enc
	}

	n.OriginalData = raw
	return nil
}

// graftRemaining is the intrusive add path (spec.md §4.4): any ExifStore
// record that never matched a tree node either names a container-level
// image tag (the Copier's job, never grafted here), is the synthetic
// maker-note byte-order hint (consumed by applyMakernoteByteOrderHack), is a
// purely derived record with no tag of its own (GPSInfo/Position), or is
// genuinely new and gets grafted via PathFactory.
func (e *Encoder) graftRemaining() error {
	remaining := append([]*Exifdatum(nil), e.Exif.All()...)

	for _, d := range remaining {
		switch {
		case d.Group == "MakerNote":
			e.applyMakernoteByteOrderHack(d)
			e.Exif.Take(d.Tag, d.Group, d.Idx)
			continue

		case d.Group == GroupGPSInfo && d.Tag == 0xffe0:
			e.Exif.Take(d.Tag, d.Group, d.Idx)
			continue

		case e.header != nil && e.header.IsImageTag(d.Tag, d.Group, e.primaryGroups):
			e.Exif.Take(d.Tag, d.Group, d.Idx)
			continue
		}

		leaf, err := e.pathFactory.AddPath(e.tree, d.Tag, d.Group)
		if err != nil {
			return err
		}
		leaf.Value = d.Value.Clone()
		leaf.SetDirty(true)
		e.Exif.Take(d.Tag, d.Group, d.Idx)
	}

	return nil
}

// applyMakernoteByteOrderHack implements the Open Question decision recorded
// in SPEC_FULL.md §5: a change to Exif.MakerNote.ByteOrder (synthesized by
// Decoder.VisitIfdMakernote) is looked up by key against the live
// IfdMakernote node rather than relying on map/slice iteration order.
func (e *Encoder) applyMakernoteByteOrderHack(d *Exifdatum) error {
	if d.TagName != "ByteOrder" {
		return nil
	}

	mnNode, err := e.tree.Find(TagMakerNote, GroupIFD0)
	if err != nil || mnNode.Mn == nil {
		return nil
	}

	bo, ok := ByteOrderFromMarker(asciiString(d.Value.Bytes))
	if !ok {
		return nil
	}

	if bo.Marker() != mnNode.Mn.ByteOrder.Marker() {
		mnNode.Mn.ByteOrder = bo
		mnNode.SetDirty(true)
		mnNode.Mn.SetDirty(true)
	}

	return nil
}
