package exiv2

// Finder is the §4.1 Visitor-based lookup traversal: unlike the plain
// recursive find()/Tree.Find helper in node.go, it drives the shared
// Visitor/Walk machinery and flips its own Gates.Traverse off the moment it
// finds a match, pruning the rest of the walk rather than exhausting the
// tree. Tree.Find stays as the lightweight helper other components use
// internally (resolveDataStrips, decodeGPSPosition, ...); Finder is the
// traversal form exercised directly by callers and tests.
type Finder struct {
	BaseVisitor

	tag    uint16
	group  Group
	Result *Node

	gates *Gates
}

// NewFinder constructs a Finder looking for the first node matching
// (tag, group) in child-insertion order.
func NewFinder(tag uint16, group Group) *Finder {
	return &Finder{tag: tag, group: group}
}

// FindIn walks tree and returns the first matching node, or ErrTagNotFound.
func (f *Finder) FindIn(tree *Tree) (*Node, error) {
	g := NewGates()
	f.gates = &g

	if err := Walk(tree.Root, f, &g); err != nil {
		return nil, err
	}
	if f.Result == nil {
		return nil, ErrTagNotFound
	}
	return f.Result, nil
}

func (f *Finder) match(n *Node) error {
	if f.Result == nil && n.Tag == f.tag && n.Group == f.group {
		f.Result = n
		f.gates.Traverse = false
	}
	return nil
}

func (f *Finder) VisitEntry(n *Node) error        { return f.match(n) }
func (f *Finder) VisitDataEntry(n *Node) error     { return f.match(n) }
func (f *Finder) VisitImageEntry(n *Node) error    { return f.match(n) }
func (f *Finder) VisitSizeEntry(n *Node) error      { return f.match(n) }
func (f *Finder) VisitSubIfd(n *Node) error         { return f.match(n) }
func (f *Finder) VisitMnEntry(n *Node) error        { return f.match(n) }
func (f *Finder) VisitBinaryArray(n *Node) error    { return f.match(n) }
func (f *Finder) VisitBinaryElement(n *Node) error  { return f.match(n) }
