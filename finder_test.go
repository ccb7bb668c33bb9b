package exiv2

import (
	"errors"
	"testing"
)

func TestFinderReturnsFirstMatch(t *testing.T) {
	bo := LittleEndian
	schema, _ := newTestSchema()

	buf := make([]byte, 8)
	root := appendDirectory(&buf, bo, []entryval{
		{tag: TagMake, typ: TypeASCII, count: 5, outline: asciiVal("Test")},
		{tag: 0x0112, typ: TypeShort, count: 1, inline: put2(bo, 1)},
	}, 0)

	r := NewReader(buf, bo, schema, NewDefaultMakernoteFactory(LoadDefaultConfig()))
	tree, err := r.Read(root)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	f := NewFinder(0x0112, GroupIFD0)
	n, ferr := f.FindIn(tree)
	if ferr != nil {
		t.Fatalf("FindIn: %v", ferr)
	}
	if n.Tag != 0x0112 {
		t.Fatalf("wrong match: %+v", n)
	}
}

// A match flips Gates.Traverse off, pruning the rest of the walk: a second
// node with the same (tag, group) later in the tree must never overwrite
// Result.
func TestFinderPrunesAfterMatch(t *testing.T) {
	tree := NewTree(GroupIFD0)
	first := &Node{Kind: KindEntry, Tag: 0x0112, Group: GroupIFD0, Value: &Value{Type: TypeShort, Count: 1, Bytes: put2(LittleEndian, 1)}}
	second := &Node{Kind: KindEntry, Tag: 0x0112, Group: GroupIFD0, Value: &Value{Type: TypeShort, Count: 1, Bytes: put2(LittleEndian, 2)}}
	if err := Attach(tree.Root, first); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if err := Attach(tree.Root, second); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	f := NewFinder(0x0112, GroupIFD0)
	n, err := f.FindIn(tree)
	if err != nil {
		t.Fatalf("FindIn: %v", err)
	}
	if n != first {
		t.Fatalf("want the first matching node, got %+v", n)
	}
}

func TestFinderReturnsErrTagNotFound(t *testing.T) {
	tree := NewTree(GroupIFD0)
	f := NewFinder(0x0112, GroupIFD0)
	if _, err := f.FindIn(tree); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("want ErrTagNotFound, got %v", err)
	}
}
