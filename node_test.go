package exiv2

import (
	"errors"
	"testing"
)

// Attach only accepts Directory/SubIfd/BinaryArray parents; anything else
// (an Entry, say) must reject attachment outright.
func TestAttachRejectsNonContainerKinds(t *testing.T) {
	leaf := &Node{Kind: KindEntry, Tag: 0x0001, Group: GroupIFD0}
	child := &Node{Kind: KindEntry, Tag: 0x0002, Group: GroupIFD0}

	if err := Attach(leaf, child); !errors.Is(err, ErrNotAttachable) {
		t.Fatalf("want ErrNotAttachable, got %v", err)
	}

	dir := &Node{Kind: KindDirectory, Group: GroupIFD0}
	if err := Attach(dir, child); err != nil {
		t.Fatalf("Directory should accept children: %v", err)
	}
	if len(dir.Children) != 1 || dir.Children[0] != child {
		t.Fatalf("child not attached: %+v", dir.Children)
	}
	if child.Parent != dir {
		t.Fatalf("child.Parent not set")
	}
}

// NextIdx hands out a 1-based, monotonically increasing sequence per group,
// independent of any other group's counter.
func TestNextIdxMonotonicPerGroup(t *testing.T) {
	tree := NewTree(GroupIFD0)

	if got := tree.NextIdx(GroupIFD0); got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
	if got := tree.NextIdx(GroupIFD0); got != 2 {
		t.Fatalf("want 2, got %d", got)
	}
	if got := tree.NextIdx(GroupExifIFD); got != 1 {
		t.Fatalf("a different group must start its own sequence at 1, got %d", got)
	}
	if got := tree.NextIdx(GroupIFD0); got != 3 {
		t.Fatalf("want 3, got %d", got)
	}
}

// Tree.Find resolves a (tag, group) reference regardless of where in the
// tree shape the matching node lives: a direct child, a node buried inside a
// SubIfd, inside a maker note's inner directory, or chained via HasNext.
func TestTreeFindCrossReferenceResolution(t *testing.T) {
	tree := NewTree(GroupIFD0)

	direct := &Node{Kind: KindEntry, Tag: 0x0100, Group: GroupIFD0}
	if err := Attach(tree.Root, direct); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	sub := &Node{Kind: KindSubIfd, Tag: 0x8769, Group: GroupIFD0, NewGroup: GroupExifIFD}
	if err := Attach(tree.Root, sub); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	subDir := &Node{Kind: KindDirectory, Group: GroupExifIFD}
	if err := Attach(sub, subDir); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	buried := &Node{Kind: KindEntry, Tag: 0x9003, Group: GroupExifIFD}
	if err := Attach(subDir, buried); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	mnEntry := &Node{Kind: KindMnEntry, Tag: TagMakerNote, Group: GroupIFD0}
	mn := &Node{Kind: KindIfdMakernote, Group: GroupIFD0, NewGroup: GroupCanon}
	mnEntry.Mn = mn
	innerDir := &Node{Kind: KindDirectory, Group: GroupCanon}
	mn.Inner = innerDir
	insideMn := &Node{Kind: KindEntry, Tag: 0x0026, Group: GroupCanon}
	if err := Attach(innerDir, insideMn); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := Attach(tree.Root, mnEntry); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	chained := &Node{Kind: KindDirectory, Group: GroupIFD1}
	chainedEntry := &Node{Kind: KindEntry, Tag: 0x0201, Group: GroupIFD1}
	if err := Attach(chained, chainedEntry); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	tree.Root.Next = chained
	tree.Root.HasNext = true

	cases := []struct {
		name  string
		tag   uint16
		group Group
		want  *Node
	}{
		{"direct child", 0x0100, GroupIFD0, direct},
		{"buried in SubIfd", 0x9003, GroupExifIFD, buried},
		{"buried in maker note inner directory", 0x0026, GroupCanon, insideMn},
		{"chained via HasNext", 0x0201, GroupIFD1, chainedEntry},
	}
	for _, c := range cases {
		got, err := tree.Find(c.tag, c.group)
		if err != nil {
			t.Fatalf("%s: Find: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: want %+v, got %+v", c.name, c.want, got)
		}
	}

	if _, err := tree.Find(0xffff, GroupIFD0); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("want ErrTagNotFound for a missing tag, got %v", err)
	}
}

// A Directory node itself is never a valid match for Find, even if its
// (tag, group) happened to coincide with a query (Directories carry no tag
// of their own, but the exclusion in find() guards the invariant directly).
func TestTreeFindNeverMatchesADirectory(t *testing.T) {
	tree := NewTree(GroupIFD0)
	tree.Root.Tag = 0x0100 // a Directory's Tag field is normally unused/zero

	if _, err := tree.Find(0x0100, GroupIFD0); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("want ErrTagNotFound, a Directory must never match, got %v", err)
	}
}
