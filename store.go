package exiv2

// Exifdatum is one decoded-or-pending Exif record. The Decoder produces
// these; the Encoder consumes them back into the tree (spec.md §4.3/§4.4).
type Exifdatum struct {
	GroupName string
	TagName   string
	Tag       uint16
	Group     Group
	Idx       int
	Value     *Value
}

// Key returns a human-readable "Exif.<group>.<name>" key, the form spec.md
// §4.3/§4.4 uses for well-known synthesized tags like
// "Exif.Image.XMLPacket".
func (d *Exifdatum) Key() string {
	return "Exif." + d.GroupName + "." + d.TagName
}

// ExifStore is the mutable collection the Encoder is constructed with and
// drains as it walks the tree (spec.md §4.4). Iteration/removal order is
// the store's insertion order unless explicitly reordered, since "Encoder
// consumes Exif records in their existing collection order" is an
// observable property (spec.md §5).
type ExifStore struct {
	data []*Exifdatum
}

func NewExifStore() *ExifStore {
	return &ExifStore{data: make([]*Exifdatum, 0, 32)}
}

func (s *ExifStore) Add(d *Exifdatum) {
	s.data = append(s.data, d)
}

// Len returns the number of unconsumed records.
func (s *ExifStore) Len() int { return len(s.data) }

// All returns the unconsumed records in collection order. The slice is the
// store's own storage, not a copy; do not mutate the store while ranging.
func (s *ExifStore) All() []*Exifdatum {
	return s.data
}

// RemoveAll drops every record matching (tag, group), returning how many
// were removed. Used by encodeIptc/encodeXmp to clear stale synthesized
// tags before re-emitting them (spec.md §4.4).
func (s *ExifStore) RemoveAll(tag uint16, group Group) int {
	kept := s.data[:0]
	n := 0
	for _, d := range s.data {
		if d.Tag == tag && d.Group == group {
			n++
			continue
		}
		kept = append(kept, d)
	}
	s.data = kept
	return n
}

// Take finds and removes the best match for (tag, group, idx): an exact idx
// match is preferred (duplicate-tag disambiguation, spec.md §4.4), else the
// first record with a matching (tag, group).
func (s *ExifStore) Take(tag uint16, group Group, idx int) (*Exifdatum, bool) {
	for i, d := range s.data {
		if d.Tag == tag && d.Group == group && d.Idx == idx {
			s.data = append(s.data[:i], s.data[i+1:]...)
			return d, true
		}
	}
	for i, d := range s.data {
		if d.Tag == tag && d.Group == group {
			s.data = append(s.data[:i], s.data[i+1:]...)
			return d, true
		}
	}
	return nil, false
}

// IptcStore holds decoded/pending IPTC records keyed by dataset name
// (spec.md §4.3 IPTC decoder, §4.4 encodeIptc). The wire format itself is
// delegated to an external IptcParser (spec.md §6); this store is just the
// in-memory key/value bag it decodes into and encodes from.
type IptcStore struct {
	Records map[string]string
}

func NewIptcStore() *IptcStore {
	return &IptcStore{Records: make(map[string]string)}
}

// XmpStore holds decoded/pending XMP records plus, optionally, the original
// raw packet bytes (encodeXmp re-emits them byte-identical only when Records
// is empty).
type XmpStore struct {
	Records   map[string]string
	RawPacket []byte
}

func NewXmpStore() *XmpStore {
	return &XmpStore{Records: make(map[string]string)}
}
