package exiv2

// Copier is the §4.5 traversal: it walks a source tree and, for every
// non-Directory node the Header recognizes as an "image tag" of one of
// primaryGroups, deep-clones it onto dst via PathFactory. Everything else
// (metadata tags, maker notes, directories themselves) is left untouched —
// Copier only ever adds the container's own structural/image tags, never the
// caller's Exif/IPTC/XMP payload.
type Copier struct {
	BaseVisitor

	src           *Tree
	dst           *Tree
	pathFactory   PathFactory
	header        Header
	primaryGroups map[Group]bool
}

func NewCopier(src, dst *Tree, pathFactory PathFactory, header Header, primaryGroups map[Group]bool) *Copier {
	return &Copier{
		src:           src,
		dst:           dst,
		pathFactory:   pathFactory,
		header:        header,
		primaryGroups: primaryGroups,
	}
}

// Copy walks src and grafts matching nodes onto dst.
func (c *Copier) Copy() error {
	g := NewGates()
	return Walk(c.src.Root, c, &g)
}

func (c *Copier) copyIfImage(n *Node) error {
	if c.header == nil || !c.header.IsImageTag(n.Tag, n.Group, c.primaryGroups) {
		return nil
	}

	leaf, err := c.pathFactory.AddPath(c.dst, n.Tag, n.Group)
	if err != nil {
		return err
	}

	switch {
	case n.Value != nil:
		leaf.Value = n.Value.Clone()
	case n.Kind == KindBinaryArray:
		leaf.Value = &Value{Type: TypeUndefined, Count: uint32(len(n.OriginalData)), Bytes: append([]byte(nil), n.OriginalData...)}
	}

	leaf.Offset = n.Offset
	if len(n.Strips) > 0 {
		leaf.Strips = append([]Strip(nil), n.Strips...)
	}

	return nil
}

func (c *Copier) VisitEntry(n *Node) error      { return c.copyIfImage(n) }
func (c *Copier) VisitDataEntry(n *Node) error  { return c.copyIfImage(n) }
func (c *Copier) VisitImageEntry(n *Node) error { return c.copyIfImage(n) }
func (c *Copier) VisitSizeEntry(n *Node) error  { return c.copyIfImage(n) }
func (c *Copier) VisitBinaryArray(n *Node) error { return c.copyIfImage(n) }
func (c *Copier) VisitBinaryElement(n *Node) error { return c.copyIfImage(n) }

func (c *Copier) VisitMnEntry(n *Node) error {
	if n.Mn == nil {
		return c.copyIfImage(n)
	}
	return nil
}
