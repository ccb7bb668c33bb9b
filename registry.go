package exiv2

// This file defines the collaborators spec.md §6 treats as external: the
// core never hard-codes a tag dictionary, an IPTC/XMP codec, or a
// container's notion of "image tag". It only knows the shapes below. A
// caller wires in whatever dictionary/codec fits their container format;
// the default implementations (registry_default.go, iptc_xmp.go,
// makernote.go, decoder_registry.go, encoder_registry.go) are a minimal,
// self-consistent set good enough to drive the tree end to end (and what
// this module's own tests use).

// TagRegistry constructs a fresh, unattached node of the right Kind for a
// tag appearing in a given group. A false second return means "unknown tag"
// (spec.md §7 ErrUnknownTag): the caller skips the entry with a warning.
type TagRegistry interface {
	Create(tag uint16, group Group) (kind NodeKind, ok bool)
}

// PathFactory grafts a new, empty leaf node for (tag, group) onto root,
// creating any intermediate Directory/SubIfd nodes along the way, and
// returns the grafted leaf so the caller can populate its Value. This
// collapses spec.md §6's `getPath` + `addPath` pair into one call, since
// nothing in this core ever needs the intermediate path without grafting it.
type PathFactory interface {
	AddPath(tree *Tree, tag uint16, group Group) (*Node, error)
}

// TagName is one entry of a human-readable tag dictionary (spec.md §6
// TagInfo.tagList), consumed only by specialized decoders like Canon
// AFInfo2 that must synthesize sub-tag names.
type TagName struct {
	Tag  uint16
	Name string
}

// TagInfo supplies human-readable tag names for a named tag family (e.g.
// "Canon").
type TagInfo interface {
	TagList(familyName string) ([]TagName, error)
}

// Header abstracts the enclosing container's view of byte order and which
// groups/tags count as "image tags" that the Copier preserves verbatim
// (spec.md §4.5) and the intrusive Encoder path skips (already copied).
type Header interface {
	ByteOrder() ByteOrder
	IsImageTag(tag uint16, group Group, primaryGroups map[Group]bool) bool
}

// MakernoteFactory constructs the concrete IfdMakernote node appropriate for
// a camera Make string, or returns ok=false to leave the maker note as an
// opaque blob (spec.md §4.2 MnEntry / §6).
type MakernoteFactory interface {
	Create(tag uint16, mnGroup Group, make string, data []byte, size uint32, byteOrder ByteOrder) (mn *Node, ok bool, err error)
}

// IptcParser is the external IPTC IIM codec (spec.md §6).
type IptcParser interface {
	Decode(data []byte) (map[string]string, error)
	Encode(records map[string]string) ([]byte, error)
}

// XmpParser is the external XMP packet codec (spec.md §6).
type XmpParser interface {
	Decode(packet []byte) (map[string]string, error)
	Encode(records map[string]string) ([]byte, error)
}

// Photoshop locates and rewrites an IPTC Image Resource Block embedded in an
// Exif.Image.ImageResources blob (spec.md §6).
type Photoshop interface {
	LocateIptcIrb(data []byte) (hdrLen, dataLen int, err error)
	SetIptcIrb(data []byte, iptc []byte) ([]byte, error)
}

// DecoderFct decodes one node's value into one or more records in the
// Decoder's output stores. A nil DecoderFct (not found in the registry)
// means "no specialization": Decoder.decodeNode then uses
// decodeStdTiffEntry, so a nil result never skips a tag.
type DecoderFct func(d *Decoder, n *Node) error

// DecoderRegistry resolves (make, tag, group) to a DecoderFct (spec.md §6
// findDecoderFct).
type DecoderRegistry interface {
	Find(make string, tag uint16, group Group) DecoderFct
}

// EncoderFct encodes a matched Exifdatum into a node (spec.md §4.4
// findEncoderFct). Returning handled=false means "use the per-kind default".
type EncoderFct func(e *Encoder, n *Node, d *Exifdatum) (handled bool, err error)

// EncoderRegistry resolves (make, tag, group) to an EncoderFct.
type EncoderRegistry interface {
	Find(make string, tag uint16, group Group) EncoderFct
}
