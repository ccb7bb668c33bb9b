package exiv2

import (
	"github.com/dsoprea/go-logging"
)

// defaultSchema is the TagRegistry (spec.md §6) this module ships: a static
// table covering the tags exercised by the reader/decoder/encoder tests and
// the scenarios in spec.md §8. A real container format would supply a much
// larger, generated table (the role TagRegistry plays per §1's EXCLUDED
// list); this one exists so the core traversals have something concrete to
// drive end to end.
type Schema interface {
	TagRegistry

	// SubIfdGroup returns the child group a SubIfd tag fans out into, and
	// how many offsets it may hold (spec.md §4.2 SubIfd: "min(count, maxi)",
	// maxi = 1 for IFD1, else 9).
	SubIfdGroup(tag uint16, group Group) (newGroup Group, maxChildren int, ok bool)

	// DataSizeLink returns the SizeEntry (tag, group) a DataEntry/ImageEntry
	// is paired with.
	DataSizeLink(tag uint16, group Group) (szTag uint16, szGroup Group, ok bool)

	// SizeDataLink returns the DataEntry/ImageEntry (tag, group) a SizeEntry
	// is paired with (the mirror of DataSizeLink).
	SizeDataLink(tag uint16, group Group) (dtTag uint16, dtGroup Group, ok bool)

	// BinaryArrayConfig returns the layout config for a BinaryArray tag.
	BinaryArrayConfig(tag uint16, group Group) (*BinaryArrayConfig, bool)
}

type tagKey struct {
	Tag   uint16
	Group Group
}

type subIfdInfo struct {
	newGroup    Group
	maxChildren int
}

type linkInfo struct {
	tag   uint16
	group Group
}

type defaultSchema struct {
	kinds    map[tagKey]NodeKind
	subIfds  map[tagKey]subIfdInfo
	dataSize map[tagKey]linkInfo
	sizeData map[tagKey]linkInfo
	cfg      *ConfigRegistry
}

// Well-known Exif groups beyond IFD0/IFD1 (defined in types.go).
const (
	GroupExifIFD Group = "ExifIFD"
	GroupGPSInfo Group = "GPSInfo"
	GroupInterop Group = "Interop"
	GroupCanon   Group = "Canon"
	GroupNikon3  Group = "Nikon3"
)

// NewDefaultSchema builds the static tag table described above.
func NewDefaultSchema(cfg *ConfigRegistry) *defaultSchema {
	s := &defaultSchema{
		kinds:    make(map[tagKey]NodeKind),
		subIfds:  make(map[tagKey]subIfdInfo),
		dataSize: make(map[tagKey]linkInfo),
		sizeData: make(map[tagKey]linkInfo),
		cfg:      cfg,
	}

	// IFD0
	s.kinds[tagKey{TagMake, GroupIFD0}] = KindEntry
	s.kinds[tagKey{0x0110, GroupIFD0}] = KindEntry // Model
	s.kinds[tagKey{0x010e, GroupIFD0}] = KindEntry // ImageDescription
	s.kinds[tagKey{0x0112, GroupIFD0}] = KindEntry // Orientation
	s.kinds[tagKey{TagXMLPacket, GroupIFD0}] = KindEntry
	s.kinds[tagKey{TagIPTCNAA, GroupIFD0}] = KindEntry
	s.kinds[tagKey{TagImageResources, GroupIFD0}] = KindEntry
	s.kinds[tagKey{TagMakerNote, GroupIFD0}] = KindMnEntry

	s.kinds[tagKey{0x8769, GroupIFD0}] = KindSubIfd // ExifIFD pointer
	s.subIfds[tagKey{0x8769, GroupIFD0}] = subIfdInfo{GroupExifIFD, 9}

	s.kinds[tagKey{0x8825, GroupIFD0}] = KindSubIfd // GPSInfo pointer
	s.subIfds[tagKey{0x8825, GroupIFD0}] = subIfdInfo{GroupGPSInfo, 9}

	s.kinds[tagKey{0x0111, GroupIFD0}] = KindDataEntry // StripOffsets
	s.dataSize[tagKey{0x0111, GroupIFD0}] = linkInfo{0x0117, GroupIFD0}
	s.kinds[tagKey{0x0117, GroupIFD0}] = KindSizeEntry // StripByteCounts
	s.sizeData[tagKey{0x0117, GroupIFD0}] = linkInfo{0x0111, GroupIFD0}

	// IFD1 (thumbnail)
	s.kinds[tagKey{0x0201, GroupIFD1}] = KindImageEntry // JPEGInterchangeFormat
	s.dataSize[tagKey{0x0201, GroupIFD1}] = linkInfo{0x0202, GroupIFD1}
	s.kinds[tagKey{0x0202, GroupIFD1}] = KindSizeEntry // JPEGInterchangeFormatLength
	s.sizeData[tagKey{0x0202, GroupIFD1}] = linkInfo{0x0201, GroupIFD1}

	// ExifIFD
	s.kinds[tagKey{0x9003, GroupExifIFD}] = KindEntry // DateTimeOriginal
	s.kinds[tagKey{0xa005, GroupExifIFD}] = KindSubIfd // Interop pointer
	s.subIfds[tagKey{0xa005, GroupExifIFD}] = subIfdInfo{GroupInterop, 9}

	// GPSInfo
	s.kinds[tagKey{0x0001, GroupGPSInfo}] = KindEntry // GPSLatitudeRef
	s.kinds[tagKey{0x0002, GroupGPSInfo}] = KindEntry // GPSLatitude
	s.kinds[tagKey{0x0003, GroupGPSInfo}] = KindEntry // GPSLongitudeRef
	s.kinds[tagKey{0x0004, GroupGPSInfo}] = KindEntry // GPSLongitude

	// Interop
	s.kinds[tagKey{0x0001, GroupInterop}] = KindEntry // InteropIndex

	// Sony1 maker-note island
	s.kinds[tagKey{TagSonyPreview, GroupSony1}] = KindEntry
	s.kinds[tagKey{0x2010, GroupSony1}] = KindBinaryArray

	// Canon maker-note island
	s.kinds[tagKey{0x0001, GroupCanon}] = KindBinaryArray // CameraSettings
	s.kinds[tagKey{0x0026, GroupCanon}] = KindEntry       // AFInfo2 (structured decode, plain Entry kind)

	// Nikon3 maker-note island
	s.kinds[tagKey{0x0098, GroupNikon3}] = KindBinaryArray // LensData

	return s
}

func (s *defaultSchema) Create(tag uint16, group Group) (NodeKind, bool) {
	k, ok := s.kinds[tagKey{tag, group}]
	return k, ok
}

func (s *defaultSchema) SubIfdGroup(tag uint16, group Group) (Group, int, bool) {
	info, ok := s.subIfds[tagKey{tag, group}]
	return info.newGroup, info.maxChildren, ok
}

func (s *defaultSchema) DataSizeLink(tag uint16, group Group) (uint16, Group, bool) {
	l, ok := s.dataSize[tagKey{tag, group}]
	return l.tag, l.group, ok
}

func (s *defaultSchema) SizeDataLink(tag uint16, group Group) (uint16, Group, bool) {
	l, ok := s.sizeData[tagKey{tag, group}]
	return l.tag, l.group, ok
}

func (s *defaultSchema) BinaryArrayConfig(tag uint16, group Group) (*BinaryArrayConfig, bool) {
	return s.cfg.ArrayConfig(tag, group)
}

// defaultPathFactory grafts new tags onto a tree using the subIfd wiring in
// defaultSchema (spec.md §6 PathFactory).
type defaultPathFactory struct {
	schema *defaultSchema
}

func NewDefaultPathFactory(schema *defaultSchema) *defaultPathFactory {
	return &defaultPathFactory{schema: schema}
}

// subIfdParentOf finds which (parentGroup, tag) SubIfd leads to group, by
// scanning the schema's subIfd table. Returns ok=false for a root group.
func (f *defaultPathFactory) subIfdParentOf(group Group) (parentGroup Group, tag uint16, ok bool) {
	for k, info := range f.schema.subIfds {
		if info.newGroup == group {
			return k.Group, k.Tag, true
		}
	}
	return "", 0, false
}

func (f *defaultPathFactory) ensureDirectory(tree *Tree, group Group) (*Node, error) {
	if tree.Root.Group == group {
		return tree.Root, nil
	}

	parentGroup, subTag, ok := f.subIfdParentOf(group)
	if !ok {
		log.Panicf("no path to group %s", group)
	}

	parentDir, err := f.ensureDirectory(tree, parentGroup)
	if err != nil {
		return nil, err
	}

	var subIfd *Node
	for _, c := range parentDir.Children {
		if c.Kind == KindSubIfd && c.Tag == subTag {
			subIfd = c
			break
		}
	}

	if subIfd == nil {
		subIfd = &Node{
			Kind:     KindSubIfd,
			Tag:      subTag,
			Group:    parentGroup,
			NewGroup: group,
		}
		if err := Attach(parentDir, subIfd); err != nil {
			return nil, err
		}
		subIfd.Idx = tree.NextIdx(parentGroup)
	}

	for _, c := range subIfd.Children {
		if c.Kind == KindDirectory && c.Group == group {
			return c, nil
		}
	}

	childDir := &Node{Kind: KindDirectory, Group: group}
	if err := Attach(subIfd, childDir); err != nil {
		return nil, err
	}

	return childDir, nil
}

func (f *defaultPathFactory) AddPath(tree *Tree, tag uint16, group Group) (*Node, error) {
	dir, err := f.ensureDirectory(tree, group)
	if err != nil {
		return nil, err
	}

	kind, ok := f.schema.Create(tag, group)
	if !ok {
		kind = KindEntry
	}

	leaf := &Node{Kind: kind, Tag: tag, Group: group}

	if kind == KindDataEntry {
		if szTag, szGroup, ok := f.schema.DataSizeLink(tag, group); ok {
			leaf.SzTag, leaf.SzGroup = szTag, szGroup
		}
	}
	if kind == KindSizeEntry {
		if dtTag, dtGroup, ok := f.schema.SizeDataLink(tag, group); ok {
			leaf.DtTag, leaf.DtGroup = dtTag, dtGroup
		}
	}
	if kind == KindBinaryArray {
		if cfg, ok := f.schema.BinaryArrayConfig(tag, group); ok {
			leaf.Cfg = cfg
		}
	}

	if err := Attach(dir, leaf); err != nil {
		return nil, err
	}
	leaf.Idx = tree.NextIdx(group)

	return leaf, nil
}

// defaultTagInfo supplies sub-tag names for the Canon AFInfo2 split
// (spec.md §4.3).
type defaultTagInfo struct{}

func NewDefaultTagInfo() *defaultTagInfo { return &defaultTagInfo{} }

func (defaultTagInfo) TagList(familyName string) ([]TagName, error) {
	if familyName != "Canon" {
		return nil, ErrTagNotFound
	}
	return canonAFInfo2Fields, nil
}

// defaultHeader is a minimal Header (spec.md §6) treating IFD0/IFD1's
// strip/thumbnail tags as "image tags" for the Copier/intrusive-encoder
// skip rule (spec.md §4.4/§4.5).
type defaultHeader struct {
	bo ByteOrder
}

func NewDefaultHeader(bo ByteOrder) *defaultHeader {
	return &defaultHeader{bo: bo}
}

func (h *defaultHeader) ByteOrder() ByteOrder { return h.bo }

func (h *defaultHeader) IsImageTag(tag uint16, group Group, primaryGroups map[Group]bool) bool {
	if !primaryGroups[group] {
		return false
	}
	switch tag {
	case 0x0111, 0x0117, 0x0201, 0x0202:
		return true
	default:
		return false
	}
}
