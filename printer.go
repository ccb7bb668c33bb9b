package exiv2

import (
	"fmt"
	"strings"
)

// Printer is the read-only traversal SPEC_FULL.md §4 recovers from
// original_source/src/tiffvisitor_int.cpp's TiffPrinter: it renders every
// node's kind/tag/group/type/value as one line of text, in traversal order
// (spec.md §5: ordering is an observable property). Used by the
// cmd/exiftreedump demo and by tests asserting traversal order.
type Printer struct {
	BaseVisitor

	out strings.Builder
}

func NewPrinter() *Printer { return &Printer{} }

// Print walks tree and returns the rendered text.
func (p *Printer) Print(tree *Tree) (string, error) {
	g := NewGates()
	if err := Walk(tree.Root, p, &g); err != nil {
		return "", err
	}
	return p.out.String(), nil
}

func (p *Printer) line(kind string, n *Node) {
	fmt.Fprintf(&p.out, "%-12s group=%-10s tag=0x%04x idx=%d", kind, n.Group, n.Tag, n.Idx)
	if n.Value != nil {
		fmt.Fprintf(&p.out, " type=%d count=%d bytes=%d", n.Value.Type, n.Value.Count, n.Value.Size())
	}
	if n.Dirty() {
		p.out.WriteString(" dirty")
	}
	p.out.WriteByte('\n')
}

func (p *Printer) VisitDirectory(n *Node) error {
	fmt.Fprintf(&p.out, "Directory    group=%-10s start=%d\n", n.Group, n.Start)
	return nil
}

func (p *Printer) VisitEntry(n *Node) error      { p.line("Entry", n); return nil }
func (p *Printer) VisitDataEntry(n *Node) error  { p.line("DataEntry", n); return nil }
func (p *Printer) VisitImageEntry(n *Node) error { p.line("ImageEntry", n); return nil }
func (p *Printer) VisitSizeEntry(n *Node) error  { p.line("SizeEntry", n); return nil }
func (p *Printer) VisitSubIfd(n *Node) error     { p.line("SubIfd", n); return nil }
func (p *Printer) VisitMnEntry(n *Node) error    { p.line("MnEntry", n); return nil }

func (p *Printer) VisitIfdMakernote(n *Node) error {
	fmt.Fprintf(&p.out, "IfdMakernote group=%-10s vendor=%s byteOrder=%s\n", n.Group, n.NewGroup, n.ByteOrder.Marker())
	return nil
}

func (p *Printer) VisitBinaryArray(n *Node) error {
	fmt.Fprintf(&p.out, "BinaryArray  group=%-10s tag=0x%04x idx=%d decoded=%v\n", n.Group, n.Tag, n.Idx, n.Decoded)
	return nil
}

func (p *Printer) VisitBinaryElement(n *Node) error { p.line("BinaryElement", n); return nil }
