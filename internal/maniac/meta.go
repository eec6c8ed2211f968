package maniac

import "github.com/cloudinary/fuif/internal/rac"

// MetaPropertySymbolCoder serializes and deserializes a tree's shape. It
// owns exactly two adaptive SymbolChance contexts (one for the
// property-id integers, one for split values) that persist and keep
// adapting across every node of the tree, always starting from the
// package's default ZeroChance regardless of any per-group override:
// the override only ever applies to the leaves that code pixel values.
type MetaPropertySymbolCoder struct {
	propChance  *SymbolChance
	splitChance *SymbolChance
}

// NewMetaPropertySymbolCoder returns a fresh coder.
func NewMetaPropertySymbolCoder() *MetaPropertySymbolCoder {
	return &MetaPropertySymbolCoder{
		propChance:  NewSymbolChance(ZeroChance),
		splitChance: NewSymbolChance(ZeroChance),
	}
}

// Write serializes ft's shape onto enc.
func (m *MetaPropertySymbolCoder) Write(enc *rac.Encoder, ft *FrozenTree) {
	ft.Serialize(enc, m.propChance, m.splitChance)
}

// Read deserializes a tree shape over the given property ranges.
func (m *MetaPropertySymbolCoder) Read(dec *rac.Decoder, prange Ranges) *FrozenTree {
	return DeserializeFrozenTree(dec, prange, m.propChance, m.splitChance)
}
