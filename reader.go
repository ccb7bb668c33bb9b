package exiv2

import (
	"fmt"
)

// Reader is the §4.2 traversal that materializes a Tree from a raw byte
// buffer. Unlike Decoder/Encoder/Copier/Finder it doesn't walk an existing
// tree with the shared Visitor/Walk machinery — it *builds* the tree via its
// own direct recursive descent, since at each step it is deciding whether a
// node exists at all, not just what to do with one that already does. This
// mirrors the teacher's IfdTagEnumerator, generalized from a single flat TIFF
// directory chain to the full tagged-variant tree (SubIfd/MnEntry/
// IfdMakernote/BinaryArray) spec.md §3 describes.
type Reader struct {
	cursor    *ByteCursor
	schema    Schema
	mnFactory MakernoteFactory
	tree      *Tree

	// byteOrder/baseOffset are stacks scoped by IfdMakernote boundaries
	// (spec.md §4.2 "the reader's byte order and base offset are scoped to
	// the maker note"); every other descent (SubIfd, next-IFD chain) shares
	// the top of stack with its caller.
	byteOrder  []ByteOrder
	baseOffset []uint32

	postList []queuedArray
}

type queuedArray struct {
	node       *Node
	byteOrder  ByteOrder
	baseOffset uint32
}

// NewReader constructs a Reader over data, reading the root directory with
// the given starting byte order and a zero base offset (spec.md §4.2).
func NewReader(data []byte, byteOrder ByteOrder, schema Schema, mnFactory MakernoteFactory) *Reader {
	return &Reader{
		cursor:     NewByteCursor(data),
		schema:     schema,
		mnFactory:  mnFactory,
		tree:       NewTree(GroupIFD0),
		byteOrder:  []ByteOrder{byteOrder},
		baseOffset: []uint32{0},
	}
}

func (r *Reader) curBO() ByteOrder   { return r.byteOrder[len(r.byteOrder)-1] }
func (r *Reader) curBase() uint32    { return r.baseOffset[len(r.baseOffset)-1] }
func (r *Reader) pushState(bo ByteOrder, base uint32) {
	r.byteOrder = append(r.byteOrder, bo)
	r.baseOffset = append(r.baseOffset, base)
}
func (r *Reader) popState() {
	r.byteOrder = r.byteOrder[:len(r.byteOrder)-1]
	r.baseOffset = r.baseOffset[:len(r.baseOffset)-1]
}

// Read parses the root IFD starting at rootStart (the absolute offset of its
// tag-count header, e.g. whatever the TIFF/JPEG-APP1 header's "first IFD
// offset" field names) and returns the fully materialized tree.
func (r *Reader) Read(rootStart uint32) (*Tree, error) {
	r.tree.Root.Start = rootStart
	r.tree.Root.HasStart = true

	if err := r.parseDirectory(r.tree.Root); err != nil {
		return nil, err
	}
	if err := r.postProcessBinaryArrays(); err != nil {
		return nil, err
	}

	return r.tree, nil
}

// nextGroupFor decides the group of a directory's "next" chain link. Only
// the conventional IFD0->IFD1 (image -> thumbnail) rename is modeled; every
// other chain keeps its own group. A fully general container would source
// this from TagRegistry rather than hard-code it here.
func (r *Reader) nextGroupFor(dir *Node) Group {
	if dir == r.tree.Root && dir.Group == GroupIFD0 {
		return GroupIFD1
	}
	return dir.Group
}

// parseDirectory implements spec.md §4.2 steps 1-5 for one IFD-shaped
// directory: circular-reference guard, entry-count bound, per-entry parse,
// and the trailing next-IFD pointer.
func (r *Reader) parseDirectory(dir *Node) error {
	bo := r.curBO()
	base := r.curBase()
	abs := dir.Start

	if prevGroup, seen := r.tree.seenDirectoryStarts[abs]; seen {
		coreLogger.Warningf(nil, "offset %d already parsed as %s; stopping circular descent from %s", abs, prevGroup, dir.Group)
		return nil
	}
	r.tree.seenDirectoryStarts[abs] = dir.Group

	n, err := r.cursor.Uint16At(abs, bo)
	if err != nil {
		coreLogger.Warningf(nil, "%s: directory header at %d unreadable; abandoning subtree", dir.Group, abs)
		return nil
	}
	if n > 256 {
		coreLogger.Warningf(nil, "%s: directory at %d declares %d entries; abandoning subtree", dir.Group, abs, n)
		return nil
	}

	dir.HasNext = true

	for i := uint16(0); i < n; i++ {
		slotPos := abs + 2 + uint32(i)*12
		if err := r.parseEntry(dir, slotPos, bo, base); err != nil {
			coreLogger.Warningf(nil, "%s: entry slot at %d unreadable; abandoning remaining entries", dir.Group, slotPos)
			break
		}
	}

	nextPos := abs + 2 + uint32(n)*12
	next, err := r.cursor.Uint32At(nextPos, bo)
	if err != nil || next == 0 {
		return nil
	}

	nextAbs, err := addOffset(base, next)
	if err != nil || !r.cursor.inBounds(nextAbs, 2) {
		coreLogger.Warningf(nil, "%s: next-IFD pointer at %d out of bounds; stopping chain", dir.Group, nextPos)
		return nil
	}

	nextDir := &Node{
		Kind:     KindDirectory,
		Tag:      TagNext,
		Group:    r.nextGroupFor(dir),
		Start:    nextAbs,
		HasStart: true,
		Children: make([]*Node, 0, 8),
		Parent:   dir,
	}
	dir.Next = nextDir

	return r.parseDirectory(nextDir)
}

// parseEntry implements readTiffEntry (spec.md §4.2): resolve type/size,
// bounds-check the value location, then dispatch on the schema's declared
// Kind. A non-nil return means the 12-byte slot itself couldn't be read,
// which stops the enclosing directory's entry loop; every other problem is
// logged and the single entry is skipped.
func (r *Reader) parseEntry(dir *Node, slotPos uint32, bo ByteOrder, base uint32) error {
	raw, err := r.cursor.ReadEntrySlot(slotPos, bo)
	if err != nil {
		return err
	}

	kind, ok := r.schema.Create(raw.Tag, dir.Group)
	if !ok {
		coreLogger.Warningf(nil, "%s: unknown tag 0x%04x; skipping entry", dir.Group, raw.Tag)
		return nil
	}

	if raw.Count >= (1 << 28) {
		coreLogger.Warningf(nil, "%s/0x%04x: count %d rejected (>= 2^28)", dir.Group, raw.Tag, raw.Count)
		return nil
	}

	typeSize, tErr := TypeSize(raw.Type)
	if tErr != nil {
		coreLogger.Warningf(nil, "%s/0x%04x: unknown type %d, defaulting size to 1", dir.Group, raw.Tag, raw.Type)
	}

	size, err := mulSize(raw.Count, typeSize)
	if err != nil {
		coreLogger.Warningf(nil, "%s/0x%04x: count*typeSize overflow; skipping entry", dir.Group, raw.Tag)
		return nil
	}

	valueType := raw.Type
	var valueBytes []byte
	var entryOffset uint32

	if size > 4 {
		abs, aerr := addOffset(base, raw.ValueOffset)
		if aerr != nil {
			coreLogger.Warningf(nil, "%s/0x%04x: value offset overflow; skipping entry", dir.Group, raw.Tag)
			return nil
		}

		slice, serr := r.cursor.Slice(abs, size)
		if serr != nil {
			if dir.Group == GroupSony1 && raw.Tag == TagSonyPreview {
				// spec.md §8 Sony preview exception: retain the entry,
				// degraded to an empty undefined value, rather than
				// rejecting it outright.
				valueType = TypeUndefined
				size = 0
				entryOffset = abs
			} else {
				coreLogger.Warningf(nil, "%s/0x%04x: value [%d,%d) escapes buffer; skipping entry", dir.Group, raw.Tag, abs, abs+size)
				return nil
			}
		} else {
			valueBytes = append([]byte(nil), slice...)
			entryOffset = abs
		}
	} else {
		valueBytes = append([]byte(nil), raw.Inline[:size]...)
		entryOffset = slotPos + 8
	}

	n := &Node{
		Tag:      raw.Tag,
		Group:    dir.Group,
		Kind:     kind,
		Start:    slotPos,
		HasStart: true,
		Offset:   entryOffset,
		Value:    &Value{Type: valueType, Count: raw.Count, Bytes: valueBytes},
	}

	switch kind {
	case KindEntry:
		if err := Attach(dir, n); err != nil {
			return err
		}
		n.Idx = r.tree.NextIdx(dir.Group)

	case KindDataEntry, KindImageEntry:
		if szTag, szGroup, ok := r.schema.DataSizeLink(raw.Tag, dir.Group); ok {
			n.SzTag, n.SzGroup = szTag, szGroup
		}
		if err := Attach(dir, n); err != nil {
			return err
		}
		n.Idx = r.tree.NextIdx(dir.Group)
		r.resolveDataStrips(n, bo)

	case KindSizeEntry:
		if dtTag, dtGroup, ok := r.schema.SizeDataLink(raw.Tag, dir.Group); ok {
			n.DtTag, n.DtGroup = dtTag, dtGroup
		}
		if err := Attach(dir, n); err != nil {
			return err
		}
		n.Idx = r.tree.NextIdx(dir.Group)
		r.resolveSizeStrips(n, bo)

	case KindSubIfd:
		return r.parseSubIfd(dir, n, raw, base, bo)

	case KindMnEntry:
		return r.parseMnEntry(dir, n, bo)

	case KindBinaryArray:
		if cfg, ok := r.schema.BinaryArrayConfig(raw.Tag, dir.Group); ok {
			n.Cfg = cfg
		}
		n.OriginalData = append([]byte(nil), valueBytes...)
		if err := Attach(dir, n); err != nil {
			return err
		}
		n.Idx = r.tree.NextIdx(dir.Group)
		r.postList = append(r.postList, queuedArray{node: n, byteOrder: bo, baseOffset: base})

	default:
		// IfdMakernote/BinaryElement/Directory are never the schema's answer
		// for a raw tag; they're synthesized by parseMnEntry/postProcess.
		coreLogger.Warningf(nil, "%s/0x%04x: schema returned unexpected kind %s; skipping", dir.Group, raw.Tag, kind)
	}

	return nil
}

// decodeUintArray reinterprets a Value's bytes as a homogeneous array of
// unsigned integers, used to pull the strip pointer/length arrays out of a
// DataEntry/SizeEntry's raw Value (spec.md GLOSSARY Strip).
func decodeUintArray(v *Value, bo ByteOrder) []uint32 {
	if v == nil {
		return nil
	}
	width, err := TypeSize(v.Type)
	if err != nil || width == 0 {
		width = 4
	}
	count := uint32(len(v.Bytes)) / width
	out := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		chunk := v.Bytes[i*width : i*width+width]
		switch width {
		case 1:
			out = append(out, uint32(chunk[0]))
		case 2:
			out = append(out, uint32(bo.Uint16(chunk)))
		default:
			out = append(out, bo.Uint32(chunk))
		}
	}
	return out
}

func zipStrips(dataValue, sizeValue *Value, bo ByteOrder) []Strip {
	pointers := decodeUintArray(dataValue, bo)
	lengths := decodeUintArray(sizeValue, bo)
	n := len(pointers)
	if len(lengths) < n {
		n = len(lengths)
	}
	strips := make([]Strip, n)
	for i := 0; i < n; i++ {
		strips[i] = Strip{Pointer: pointers[i], Length: lengths[i]}
	}
	return strips
}

// resolveDataStrips looks up a DataEntry/ImageEntry's paired SizeEntry (which
// may not have been read yet, if it sorts after this tag) and computes
// Strips if it's already present; resolveSizeStrips is its mirror image, run
// when the SizeEntry itself is read. Together they make strip resolution
// independent of tag order within the directory.
func (r *Reader) resolveDataStrips(dataNode *Node, bo ByteOrder) {
	sizeNode, err := r.tree.Find(dataNode.SzTag, dataNode.SzGroup)
	if err != nil || sizeNode.Value == nil {
		return
	}
	dataNode.Strips = zipStrips(dataNode.Value, sizeNode.Value, bo)
}

func (r *Reader) resolveSizeStrips(sizeNode *Node, bo ByteOrder) {
	dataNode, err := r.tree.Find(sizeNode.DtTag, sizeNode.DtGroup)
	if err != nil || dataNode.Value == nil {
		return
	}
	dataNode.Strips = zipStrips(dataNode.Value, sizeNode.Value, bo)
}

// parseSubIfd implements spec.md §4.2's SubIfd case: type/count validation,
// then descent into min(count, maxChildren) child directories.
func (r *Reader) parseSubIfd(dir *Node, n *Node, raw RawEntry, base uint32, bo ByteOrder) error {
	if raw.Type != TypeLong && raw.Type != TypeSLong && raw.Type != TypeIfd {
		coreLogger.Warningf(nil, "%s/0x%04x: SubIfd entry has non-offset type %d; skipping", dir.Group, raw.Tag, raw.Type)
		return nil
	}
	if raw.Count < 1 {
		coreLogger.Warningf(nil, "%s/0x%04x: SubIfd entry has count 0; skipping", dir.Group, raw.Tag)
		return nil
	}

	newGroup, maxi, ok := r.schema.SubIfdGroup(raw.Tag, dir.Group)
	if !ok {
		coreLogger.Warningf(nil, "%s/0x%04x: no SubIfd wiring in schema; skipping", dir.Group, raw.Tag)
		return nil
	}

	maxChildren := int(raw.Count)
	if maxChildren > maxi {
		maxChildren = maxi
	}
	n.NewGroup = newGroup
	n.MaxChildren = maxChildren

	var arrayPos uint32
	if raw.Count == 1 {
		arrayPos = n.Start + 8
	} else {
		abs, aerr := addOffset(base, raw.ValueOffset)
		if aerr != nil {
			coreLogger.Warningf(nil, "%s/0x%04x: SubIfd offset-array overflow; skipping", dir.Group, raw.Tag)
			return nil
		}
		arrayPos = abs
	}

	if err := Attach(dir, n); err != nil {
		return err
	}
	n.Idx = r.tree.NextIdx(dir.Group)

	for i := 0; i < maxChildren; i++ {
		off, oerr := r.cursor.Uint32At(arrayPos+uint32(i)*4, bo)
		if oerr != nil {
			coreLogger.Warningf(nil, "%s/0x%04x: SubIfd offset[%d] unreadable; stopping", dir.Group, raw.Tag, i)
			break
		}

		abs, aerr := addOffset(base, off)
		if aerr != nil || !r.cursor.inBounds(abs, 2) {
			coreLogger.Warningf(nil, "%s/0x%04x: SubIfd child[%d] offset out of bounds; skipping", dir.Group, raw.Tag, i)
			continue
		}

		childGroup := newGroup
		if i > 0 {
			childGroup = Group(fmt.Sprintf("%s%d", newGroup, i+1))
		}

		childDir := &Node{
			Kind:     KindDirectory,
			Group:    childGroup,
			Start:    abs,
			HasStart: true,
			Children: make([]*Node, 0, 8),
			Parent:   n,
		}
		if err := Attach(n, childDir); err != nil {
			return err
		}

		if err := r.parseDirectory(childDir); err != nil {
			return err
		}
	}

	return nil
}

// parseMnEntry implements spec.md §4.2's MnEntry+IfdMakernote handling:
// resolve Make, ask the MakernoteFactory to recognize the vendor, parse its
// header, and descend into the inner directory with byte order/base offset
// scoped to the maker note.
func (r *Reader) parseMnEntry(dir *Node, n *Node, bo ByteOrder) error {
	if err := Attach(dir, n); err != nil {
		return err
	}
	n.Idx = r.tree.NextIdx(dir.Group)

	makeNode, merr := r.tree.Find(TagMake, GroupIFD0)
	if merr != nil || makeNode.Value == nil {
		coreLogger.Warningf(nil, "%s/0x%04x: maker note read before Make tag; leaving opaque", dir.Group, n.Tag)
		return nil
	}
	makeStr := asciiString(makeNode.Value.Bytes)

	data := n.Value.Bytes
	mn, ok, cerr := r.mnFactory.Create(n.Tag, n.Group, makeStr, data, n.Value.Size(), bo)
	if cerr != nil {
		return cerr
	}
	if !ok {
		coreLogger.Warningf(nil, "%s: no maker-note factory recognizes make %q; leaving opaque", dir.Group, makeStr)
		return nil
	}

	n.MnGroup = mn.Group
	n.Mn = mn
	mn.Parent = n
	mn.Start = n.Offset
	mn.HasStart = true

	ifdOff, hdrBase, innerBo, hdrLen, hok := parseMakernoteHeader(mn.NewGroup, data, bo)
	if !hok {
		coreLogger.Warningf(nil, "%s: maker-note header parse failed (%s); leaving inner directory unresolved", mn.Group, ErrUnknownMakernote)
		return nil
	}

	mn.Header = append([]byte(nil), data[:min(hdrLen, uint32(len(data)))]...)
	mn.ByteOrder = innerBo

	innerAbs, aerr := addOffset(n.Offset, hdrBase)
	if aerr != nil {
		coreLogger.Warningf(nil, "%s: maker-note base offset overflow", mn.Group)
		return nil
	}
	mn.BaseOffset = innerAbs
	if hdrLen == 0 {
		// A headerless maker note (a bare IFD) keeps the enclosing image's
		// base offset for the values its entries point at.
		mn.BaseOffset = r.curBase()
	}
	mn.MnOffset = n.Offset

	dirAbs, derr := addOffset(innerAbs, ifdOff)
	if derr != nil || !r.cursor.inBounds(dirAbs, 2) {
		coreLogger.Warningf(nil, "%s: maker-note inner IFD offset out of bounds", mn.Group)
		return nil
	}

	inner := &Node{
		Kind:     KindDirectory,
		Group:    mn.NewGroup,
		Start:    dirAbs,
		HasStart: true,
		Children: make([]*Node, 0, 8),
		Parent:   mn,
	}
	mn.Inner = inner

	r.pushState(innerBo, mn.BaseOffset)
	err := r.parseDirectory(inner)
	r.popState()
	return err
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// postProcessBinaryArrays is Phase 2 of BinaryArray parsing (spec.md §4.2):
// duplicate detection, optional decryption, then materializing
// BinaryElement children from the BinaryArrayConfig layout.
func (r *Reader) postProcessBinaryArrays() error {
	seenIdx := make(map[string]int)

	for _, qa := range r.postList {
		n := qa.node
		key := fmt.Sprintf("%s/0x%04x", n.Group, n.Tag)

		if firstIdx, dup := seenIdx[key]; dup && firstIdx != n.Idx {
			coreLogger.Warningf(nil, "%s: %v (idx=%d, first seen idx=%d)", key, ErrDuplicateBinaryArray, n.Idx, firstIdx)
			n.Decoded = false
			continue
		}
		seenIdx[key] = n.Idx

		cfg, ok := r.schema.BinaryArrayConfig(n.Tag, n.Group)
		if !ok {
			n.Decoded = false
			continue
		}
		n.Cfg = cfg

		raw := n.OriginalData
		if cfg.Crypt != "" {
			cipher, cok := findCipher(cfg.Crypt)
			if !cok {
				coreLogger.Warningf(nil, "%s: unknown cipher %q; leaving undecoded", key, cfg.Crypt)
				n.Decoded = false
				continue
			}
			deciphered, derr := cipher(n.Tag, raw, uint32(len(raw)), r.tree.Root)
			if derr != nil {
				coreLogger.Warningf(nil, "%s: cipher error: %v; leaving undecoded", key, derr)
				n.Decoded = false
				continue
			}
			raw = deciphered
		}

		size := cfg.Size
		if size == 0 || size > uint32(len(raw)) {
			size = uint32(len(raw))
		}

		var offset uint32
		for offset < size {
			def, _ := cfg.defElementFor(offset)
			width := def.width()
			if width == 0 {
				coreLogger.Warningf(nil, "%s: zero-width element at offset %d; stopping", key, offset)
				break
			}

			end := offset + width
			if end > uint32(len(raw)) {
				end = uint32(len(raw))
			}

			bo := qa.byteOrder
			el := &Node{
				Kind:        KindBinaryElement,
				Tag:         def.Tag,
				Group:       n.Group,
				ElOffset:    offset,
				ElType:      def.Type,
				ElCount:     def.Count,
				ElByteOrder: &bo,
				Value:       &Value{Type: def.Type, Count: def.Count, Bytes: append([]byte(nil), raw[offset:end]...)},
			}
			if err := Attach(n, el); err != nil {
				return err
			}
			el.Idx = r.tree.NextIdx(n.Group)

			offset += width
		}

		n.Decoded = true
	}

	return nil
}
