package exiv2

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/dsoprea/go-logging"
)

var (
	configLogger = log.NewLogger("exiv2.config")
)

// BinaryElementDef is one statically-known slot inside a BinaryArray's
// payload (spec.md §3 BinaryArray/BinaryElement, §4.2 Phase 2).
type BinaryElementDef struct {
	Offset uint32   `yaml:"offset"`
	Tag    uint16   `yaml:"tag"`
	Type   TiffType `yaml:"type"`
	Count  uint32   `yaml:"count"`
	Name   string   `yaml:"name"`
}

// width returns the byte span of this element.
func (d BinaryElementDef) width() uint32 {
	sz, err := TypeSize(d.Type)
	if err != nil {
		sz = 1
	}
	return sz * d.Count
}

// BinaryArrayConfig is the per-camera layout description for a BinaryArray
// node (spec.md §4.2 "if the config declares cryptFct"). Loaded from the
// embedded YAML table below rather than hard-coded Go, so adding a new
// vendor's array layout is a data change.
type BinaryArrayConfig struct {
	Name        string             `yaml:"name"`
	Group       Group              `yaml:"group"`
	Tag         uint16             `yaml:"tag"`
	Size        uint32             `yaml:"size"`
	Concat      bool               `yaml:"concat"`
	TagStep     uint32             `yaml:"tag_step"`
	DefaultType TiffType           `yaml:"default_type"`
	Crypt       string             `yaml:"crypt"`
	Elements    []BinaryElementDef `yaml:"elements"`
}

// defElementFor implements the three-rule lookup of spec.md §4.2 Phase 2:
// exact match, concat-gap synthesis, or the array's default element.
func (c *BinaryArrayConfig) defElementFor(offset uint32) (def BinaryElementDef, isGap bool) {
	for _, d := range c.Elements {
		if d.Offset == offset {
			return d, false
		}
	}

	if c.Concat {
		next := c.Size
		for _, d := range c.Elements {
			if d.Offset > offset && d.Offset < next {
				next = d.Offset
			}
		}
		gapSize := next - offset
		if gapSize == 0 {
			gapSize = c.Size - offset
		}

		count := uint32(1)
		if c.TagStep > 0 && gapSize%c.TagStep == 0 {
			count = gapSize / c.TagStep
		}

		return BinaryElementDef{
			Offset: offset,
			Type:   TypeUndefined,
			Count:  count,
			Name:   "gap",
		}, true
	}

	sz, _ := TypeSize(c.DefaultType)
	if sz == 0 {
		sz = 1
	}
	remaining := c.Size - offset
	return BinaryElementDef{
		Offset: offset,
		Type:   c.DefaultType,
		Count:  remaining / sz,
		Name:   "default",
	}, false
}

// MakernoteVendor maps a Make prefix to the group a recognized maker note
// should be parsed under.
type MakernoteVendor struct {
	MakePrefix string `yaml:"make_prefix"`
	Group      Group  `yaml:"group"`
}

type configDoc struct {
	BinaryArrays      []BinaryArrayConfig `yaml:"binary_arrays"`
	MakernoteVendors  []MakernoteVendor   `yaml:"makernote_vendors"`
}

// defaultConfigYAML is the embedded per-vendor layout table. It plays the
// role the original C++ fills with per-camera .cpp files (nikonmn_int.cpp,
// sonymn_int.cpp, ...): static data describing binary layouts, kept as data
// here instead of Go code so a new vendor array is a config change.
const defaultConfigYAML = `
binary_arrays:
  - name: sony_tag2010
    group: Sony1
    tag: 0x2010
    size: 16
    concat: true
    tag_step: 2
    default_type: 7
    crypt: sonyTagDecipher
    elements:
      - offset: 0
        tag: 0xb000
        type: 3
        count: 1
        name: SonyModelID
      - offset: 2
        tag: 0xb001
        type: 3
        count: 1
        name: SonyLensSpec

  - name: canon_camera_settings
    group: Canon
    tag: 0x0001
    size: 0
    concat: false
    default_type: 8
    elements: []

  - name: nikon_lens_data
    group: Nikon3
    tag: 0x0098
    size: 0
    concat: false
    default_type: 7
    crypt: nikonLensDataDecipher
    elements: []

makernote_vendors:
  - make_prefix: Canon
    group: Canon
  - make_prefix: NIKON
    group: Nikon3
  - make_prefix: SONY
    group: Sony1
`

// ConfigRegistry indexes BinaryArrayConfigs by (tag, group) and the vendor
// dispatch table by Make prefix.
type ConfigRegistry struct {
	arrays  map[string]*BinaryArrayConfig
	vendors []MakernoteVendor
}

func key(tag uint16, group Group) string {
	return fmt.Sprintf("%s/0x%04x", group, tag)
}

// LoadDefaultConfig parses the embedded YAML table. It panics (via
// log.Panic) only on a malformed literal, which would be a programming
// error caught immediately by any test that touches it.
func LoadDefaultConfig() *ConfigRegistry {
	var doc configDoc
	if err := yaml.Unmarshal([]byte(defaultConfigYAML), &doc); err != nil {
		log.Panic(err)
	}

	cr := &ConfigRegistry{
		arrays:  make(map[string]*BinaryArrayConfig),
		vendors: doc.MakernoteVendors,
	}

	for i := range doc.BinaryArrays {
		c := doc.BinaryArrays[i]
		cr.arrays[key(c.Tag, c.Group)] = &c
		configLogger.Debugf(nil, "loaded binary array config %s for tag=0x%04x group=%s", c.Name, c.Tag, c.Group)
	}

	return cr
}

// ArrayConfig returns the layout config for (tag, group), if any.
func (cr *ConfigRegistry) ArrayConfig(tag uint16, group Group) (*BinaryArrayConfig, bool) {
	c, ok := cr.arrays[key(tag, group)]
	return c, ok
}

// VendorGroup maps a camera Make string to the group its maker note should
// be parsed under, by longest matching prefix.
func (cr *ConfigRegistry) VendorGroup(make string) (Group, bool) {
	best := ""
	var bestGroup Group
	for _, v := range cr.vendors {
		if len(v.MakePrefix) <= len(make) && make[:len(v.MakePrefix)] == v.MakePrefix {
			if len(v.MakePrefix) > len(best) {
				best = v.MakePrefix
				bestGroup = v.Group
			}
		}
	}
	if best == "" {
		return "", false
	}
	return bestGroup, true
}
