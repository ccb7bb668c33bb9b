package exiv2

// Visitor is the per-kind callback surface every traversal implements
// (spec.md §4.1). Default (embeddable) no-op implementations are provided
// by BaseVisitor so a concrete traversal only overrides what it cares
// about, matching "a small visitor trait per traversal exposing per-kind
// methods with default no-op implementations" (spec.md §9).
type Visitor interface {
	VisitDirectory(n *Node) error
	VisitDirectoryEnd(n *Node) error
	// VisitDirectoryNext runs after a directory's children (and their
	// subtrees) have all been visited but before VisitDirectoryEnd; it is
	// where the Encoder rewrites IFD entry headers (spec.md §4.4).
	VisitDirectoryNext(n *Node) error

	VisitEntry(n *Node) error
	VisitDataEntry(n *Node) error
	VisitImageEntry(n *Node) error
	VisitSizeEntry(n *Node) error
	VisitSubIfd(n *Node) error
	VisitMnEntry(n *Node) error

	VisitIfdMakernote(n *Node) error
	VisitIfdMakernoteEnd(n *Node) error

	VisitBinaryArray(n *Node) error
	VisitBinaryArrayEnd(n *Node) error
	VisitBinaryElement(n *Node) error
}

// Gates are the traversal-scoped booleans that can prune a walk mid-visit
// (spec.md §4.1, §9 "the go_ array of gate booleans").
type Gates struct {
	// Traverse, when false, stops descent into the current node's children
	// and siblings-by-chain (the "next" pointer).
	Traverse bool

	// KnownMakernote, when false, means the current IfdMakernote's header
	// failed to parse; the walker must not descend into its inner
	// Directory.
	KnownMakernote bool
}

// NewGates returns the default gate state: traverse everything, assume any
// makernote is known until a reader proves otherwise.
func NewGates() Gates {
	return Gates{Traverse: true, KnownMakernote: true}
}

// BaseVisitor gives every no-op method a home so concrete traversals can
// embed it and override only the kinds they handle.
type BaseVisitor struct{}

func (BaseVisitor) VisitDirectory(n *Node) error        { return nil }
func (BaseVisitor) VisitDirectoryEnd(n *Node) error      { return nil }
func (BaseVisitor) VisitDirectoryNext(n *Node) error     { return nil }
func (BaseVisitor) VisitEntry(n *Node) error             { return nil }
func (BaseVisitor) VisitDataEntry(n *Node) error         { return nil }
func (BaseVisitor) VisitImageEntry(n *Node) error        { return nil }
func (BaseVisitor) VisitSizeEntry(n *Node) error         { return nil }
func (BaseVisitor) VisitSubIfd(n *Node) error            { return nil }
func (BaseVisitor) VisitMnEntry(n *Node) error           { return nil }
func (BaseVisitor) VisitIfdMakernote(n *Node) error      { return nil }
func (BaseVisitor) VisitIfdMakernoteEnd(n *Node) error   { return nil }
func (BaseVisitor) VisitBinaryArray(n *Node) error       { return nil }
func (BaseVisitor) VisitBinaryArrayEnd(n *Node) error    { return nil }
func (BaseVisitor) VisitBinaryElement(n *Node) error     { return nil }

// Walk performs the single tagged-variant dispatch described in spec.md §9:
// one visit method per node kind, descending in child-insertion order (an
// observable property per spec.md §5), honoring the visitor's Gates between
// each step. It is shared by Decoder, Encoder, Copier, Finder and Printer;
// Reader has its own walk because it is what *builds* the tree rather than
// walking an existing one (see reader.go).
func Walk(n *Node, v Visitor, g *Gates) error {
	if n == nil || !g.Traverse {
		return nil
	}

	switch n.Kind {
	case KindDirectory:
		if err := v.VisitDirectory(n); err != nil {
			return err
		}
		for _, c := range n.Children {
			if !g.Traverse {
				break
			}
			if err := Walk(c, v, g); err != nil {
				return err
			}
		}
		if err := v.VisitDirectoryNext(n); err != nil {
			return err
		}
		if err := v.VisitDirectoryEnd(n); err != nil {
			return err
		}
		if n.HasNext && g.Traverse {
			return Walk(n.Next, v, g)
		}
		return nil

	case KindEntry:
		return v.VisitEntry(n)

	case KindDataEntry:
		return v.VisitDataEntry(n)

	case KindImageEntry:
		return v.VisitImageEntry(n)

	case KindSizeEntry:
		return v.VisitSizeEntry(n)

	case KindSubIfd:
		if err := v.VisitSubIfd(n); err != nil {
			return err
		}
		for _, c := range n.Children {
			if !g.Traverse {
				break
			}
			if err := Walk(c, v, g); err != nil {
				return err
			}
		}
		return nil

	case KindMnEntry:
		if err := v.VisitMnEntry(n); err != nil {
			return err
		}
		if n.Mn != nil && g.Traverse {
			return Walk(n.Mn, v, g)
		}
		return nil

	case KindIfdMakernote:
		if err := v.VisitIfdMakernote(n); err != nil {
			return err
		}
		if g.KnownMakernote && g.Traverse && n.Inner != nil {
			if err := Walk(n.Inner, v, g); err != nil {
				return err
			}
		}
		return v.VisitIfdMakernoteEnd(n)

	case KindBinaryArray:
		if err := v.VisitBinaryArray(n); err != nil {
			return err
		}
		for _, c := range n.Children {
			if !g.Traverse {
				break
			}
			if err := Walk(c, v, g); err != nil {
				return err
			}
		}
		return v.VisitBinaryArrayEnd(n)

	case KindBinaryElement:
		return v.VisitBinaryElement(n)

	default:
		return nil
	}
}
