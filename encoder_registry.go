package exiv2

// defaultEncoderRegistry is the findEncoderFct table of spec.md §6,
// mirroring defaultDecoderRegistry's specializations that need to undo a
// decoder-side split rather than a plain value swap.
type defaultEncoderRegistry struct{}

func NewDefaultEncoderRegistry() *defaultEncoderRegistry {
	return &defaultEncoderRegistry{}
}

func (defaultEncoderRegistry) Find(make string, tag uint16, group Group) EncoderFct {
	switch {
	case group == GroupCanon && tag == 0x0026:
		return encodeCanonAFInfo2
	default:
		return nil
	}
}
