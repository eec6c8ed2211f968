package maniac

import "github.com/cloudinary/fuif/internal/rac"

// Thresholds controlling when a leaf splits and when a simplified
// subtree gets pruned back to a single leaf.
const (
	SplitThreshold      = 5461 * 8 * 2
	MinSubtreeSize      = 10
	ContextTreeMinCount = 1
	ContextTreeMaxCount = 255
)

// Range is the admissible span of one property's values at a point in
// the tree; Hi is inclusive.
type Range struct {
	Lo, Hi int32
}

// Ranges is one Range per property, indexed the same way as a
// properties vector.
type Ranges []Range

func (r Ranges) clone() Ranges {
	return append(Ranges(nil), r...)
}

func (r Ranges) withBound(prop int, lo, hi int32) Ranges {
	out := r.clone()
	out[prop] = Range{lo, hi}
	return out
}

// innerNode is a tagged slot in the tree's arena: Property == -1 marks a
// leaf, whose ChildID indexes a leaf array (CompoundSymbolChances during
// training, plain per-leaf SymbolChance once frozen). An inner slot's
// ChildID indexes the "above" child (properties[Property] > SplitVal);
// ChildID+1 is always its "below" sibling.
type innerNode struct {
	Property int
	SplitVal int32
	ChildID  int
}

// Leaf is CompoundSymbolChances: the real chance used to estimate this
// leaf's own coding cost, plus one virtual (above, below) pair of
// chances per candidate split property, used only to decide whether and
// where to split. None of this survives past training.
type Leaf struct {
	Real         *SymbolChance
	VirtAbove    []*SymbolChance
	VirtBelow    []*SymbolChance
	RealSize     uint64
	VirtSize     []uint64
	VirtPropSum  []int64
	Count        int32
	BestProperty int
}

func newLeaf(nProp int, zeroChance uint16) *Leaf {
	l := &Leaf{
		Real:         NewSymbolChance(zeroChance),
		VirtAbove:    make([]*SymbolChance, nProp),
		VirtBelow:    make([]*SymbolChance, nProp),
		VirtSize:     make([]uint64, nProp),
		VirtPropSum:  make([]int64, nProp),
		BestProperty: -1,
	}
	for i := 0; i < nProp; i++ {
		l.VirtAbove[i] = NewSymbolChance(zeroChance)
		l.VirtBelow[i] = NewSymbolChance(zeroChance)
	}
	return l
}

func (l *Leaf) resetCounters() {
	l.BestProperty = -1
	l.RealSize = 0
	l.Count = 0
	for i := range l.VirtSize {
		l.VirtSize[i] = 0
		l.VirtPropSum[i] = 0
	}
}

func (l *Leaf) clone() *Leaf {
	out := &Leaf{
		Real:         l.Real.clone(),
		VirtAbove:    make([]*SymbolChance, len(l.VirtAbove)),
		VirtBelow:    make([]*SymbolChance, len(l.VirtBelow)),
		VirtSize:     append([]uint64(nil), l.VirtSize...),
		VirtPropSum:  append([]int64(nil), l.VirtPropSum...),
		Count:        l.Count,
		BestProperty: l.BestProperty,
	}
	for i := range l.VirtAbove {
		out.VirtAbove[i] = l.VirtAbove[i].clone()
		out.VirtBelow[i] = l.VirtBelow[i].clone()
	}
	return out
}

// Tree is the PropertyDecisionTree as it exists during training: an
// arena of inner nodes plus a growing pool of leaves, each accumulating
// the statistics used to decide where (and whether) to split further.
type Tree struct {
	Inner  []innerNode
	Leaves []*Leaf
	Range  Ranges
	NProp  int
}

// NewTree returns a single-leaf tree spanning the given property ranges.
func NewTree(prange Ranges, zeroChance uint16) *Tree {
	nProp := len(prange)
	return &Tree{
		Inner:  []innerNode{{Property: -1, ChildID: 0}},
		Leaves: []*Leaf{newLeaf(nProp, zeroChance)},
		Range:  prange.clone(),
		NProp:  nProp,
	}
}

func (t *Tree) descend(properties []int32) (pos int, leaf *Leaf, ranges Ranges) {
	ranges = t.Range.clone()
	pos = 0
	for t.Inner[pos].Property != -1 {
		node := t.Inner[pos]
		if properties[node.Property] > node.SplitVal {
			ranges[node.Property].Lo = node.SplitVal + 1
			pos = node.ChildID
		} else {
			ranges[node.Property].Hi = node.SplitVal
			pos = node.ChildID + 1
		}
	}
	leaf = t.Leaves[t.Inner[pos].ChildID]
	return pos, leaf, ranges
}

// TrainSymbol is one training-pass access: it finds the leaf that
// properties maps to, dry-codes val into its real and (selected)
// virtual chances, updates the running per-property sums, and splits
// the leaf if that improves the estimated coding cost enough.
func (t *Tree) TrainSymbol(properties []int32, minV, maxV, val int32) {
	pos, leaf, ranges := t.descend(properties)
	nProp := t.NProp

	sinks := make([]simSink, 0, nProp+1)
	sinks = append(sinks, simSink{leaf.Real, DefaultTable, &leaf.RealSize})
	for j := 0; j < nProp; j++ {
		mean := int32(0)
		if leaf.Count > 0 {
			mean = DivDown(leaf.VirtPropSum[j], leaf.Count)
		}
		if properties[j] > mean {
			sinks = append(sinks, simSink{leaf.VirtAbove[j], DefaultTable, &leaf.VirtSize[j]})
		} else {
			sinks = append(sinks, simSink{leaf.VirtBelow[j], DefaultTable, &leaf.VirtSize[j]})
		}
	}
	SimulateInt(sinks, minV, maxV, val)

	if leaf.Count < ContextTreeMaxCount {
		leaf.Count++
		for j := 0; j < nProp; j++ {
			leaf.VirtPropSum[j] += int64(properties[j])
		}
	}

	best := -1
	var bestSize uint64
	for j := 0; j < nProp; j++ {
		if leaf.VirtSize[j] < leaf.RealSize && (best == -1 || leaf.VirtSize[j] < bestSize) {
			best = j
			bestSize = leaf.VirtSize[j]
		}
	}
	leaf.BestProperty = best

	if best == -1 || leaf.Count < ContextTreeMinCount {
		return
	}
	if leaf.RealSize <= leaf.VirtSize[best]+SplitThreshold {
		return
	}
	t.trySplit(pos, leaf, ranges, best)
}

func (t *Tree) computeSplitVal(leaf *Leaf, prop int, cr Range) int32 {
	if cr.Lo < 0 && cr.Hi > 0 {
		return 0
	}
	sv := DivDown(leaf.VirtPropSum[prop], leaf.Count)
	return Clamp(sv, cr.Lo, cr.Hi-1)
}

func (t *Tree) trySplit(pos int, leaf *Leaf, ranges Ranges, best int) {
	cr := ranges[best]
	if cr.Lo >= cr.Hi {
		return
	}
	splitval := t.computeSplitVal(leaf, best, cr)
	if splitval < cr.Lo || splitval+1 > cr.Hi {
		return
	}

	leaf.resetCounters()
	below := leaf.clone()

	aboveIdx := t.Inner[pos].ChildID
	belowIdx := len(t.Leaves)
	t.Leaves = append(t.Leaves, below)

	childBase := len(t.Inner)
	t.Inner = append(t.Inner, innerNode{Property: -1, ChildID: aboveIdx})
	t.Inner = append(t.Inner, innerNode{Property: -1, ChildID: belowIdx})
	t.Inner[pos] = innerNode{Property: best, SplitVal: splitval, ChildID: childBase}
}

// Simplify prunes subtrees whose total leaf sample count falls below
// minSize*divisor, collapsing each into a single leaf. divisor scales
// the threshold to the volume of training data a caller fed in, so the
// same MinSubtreeSize constant works for both a single channel-group and
// a coder trained across many.
func (t *Tree) Simplify(divisor, minSize int32) {
	threshold := int64(minSize) * int64(divisor)
	if threshold < int64(minSize) {
		threshold = int64(minSize)
	}
	t.simplify(0, threshold)
}

func (t *Tree) simplify(pos int, threshold int64) (total int64, template *Leaf) {
	node := t.Inner[pos]
	if node.Property == -1 {
		leaf := t.Leaves[node.ChildID]
		return int64(leaf.Count), leaf
	}
	leftTotal, leftTemplate := t.simplify(node.ChildID, threshold)
	rightTotal, _ := t.simplify(node.ChildID+1, threshold)
	total = leftTotal + rightTotal
	if total < threshold {
		idx := len(t.Leaves)
		t.Leaves = append(t.Leaves, leftTemplate)
		t.Inner[pos] = innerNode{Property: -1, ChildID: idx}
		return total, leftTemplate
	}
	return total, nil
}

// FrozenTree is the tree shape left after training: node topology and
// split values, with leaves renumbered 0..NumLeaves-1 in the same
// right-then-left preorder that Serialize/Deserialize use, so both
// sides of the wire agree on which leaf index is which without needing
// to ship any per-leaf state at all.
type FrozenTree struct {
	Inner     []innerNode
	NumLeaves int
	Range     Ranges
	NProp     int
}

// Freeze derives a FrozenTree from a trained (and simplified) Tree,
// discarding every CompoundSymbolChances field that only training
// needed.
func (t *Tree) Freeze() *FrozenTree {
	ft := &FrozenTree{
		Inner: make([]innerNode, len(t.Inner)),
		Range: t.Range.clone(),
		NProp: t.NProp,
	}
	nextLeaf := 0
	var walk func(pos int)
	walk = func(pos int) {
		node := t.Inner[pos]
		if node.Property == -1 {
			ft.Inner[pos] = innerNode{Property: -1, ChildID: nextLeaf}
			nextLeaf++
			return
		}
		ft.Inner[pos] = innerNode{Property: node.Property, SplitVal: node.SplitVal, ChildID: node.ChildID}
		walk(node.ChildID + 1)
		walk(node.ChildID)
	}
	walk(0)
	ft.NumLeaves = nextLeaf
	return ft
}

// Navigate descends the frozen tree and returns the leaf index for
// properties.
func (ft *FrozenTree) Navigate(properties []int32) int {
	pos := 0
	for ft.Inner[pos].Property != -1 {
		node := ft.Inner[pos]
		if properties[node.Property] > node.SplitVal {
			pos = node.ChildID
		} else {
			pos = node.ChildID + 1
		}
	}
	return ft.Inner[pos].ChildID
}

// Serialize writes the tree shape (preorder, right/below child before
// left/above child) through propCoder/splitCoder, two persistent
// adaptive SymbolChance contexts that live for the whole tree write.
func (ft *FrozenTree) Serialize(enc *rac.Encoder, propCoder, splitCoder *SymbolChance) {
	var walk func(pos int, ranges Ranges)
	walk = func(pos int, ranges Ranges) {
		node := ft.Inner[pos]
		if node.Property == -1 {
			EncodeInt(enc, propCoder, DefaultTable, 0, int32(ft.NProp), 0)
			return
		}
		EncodeInt(enc, propCoder, DefaultTable, 0, int32(ft.NProp), int32(node.Property+1))
		cr := ranges[node.Property]
		EncodeInt(enc, splitCoder, DefaultTable, cr.Lo, cr.Hi-1, node.SplitVal)
		walk(node.ChildID+1, ranges.withBound(node.Property, cr.Lo, node.SplitVal))
		walk(node.ChildID, ranges.withBound(node.Property, node.SplitVal+1, cr.Hi))
	}
	walk(0, ft.Range.clone())
}

// DeserializeFrozenTree reads back what Serialize wrote.
func DeserializeFrozenTree(dec *rac.Decoder, prange Ranges, propCoder, splitCoder *SymbolChance) *FrozenTree {
	nProp := len(prange)
	ft := &FrozenTree{Range: prange.clone(), NProp: nProp}
	ft.Inner = append(ft.Inner, innerNode{})
	nextLeaf := 0

	var fill func(pos int, ranges Ranges)
	fill = func(pos int, ranges Ranges) {
		propCode := DecodeInt(dec, propCoder, DefaultTable, 0, int32(nProp))
		if propCode == 0 {
			ft.Inner[pos] = innerNode{Property: -1, ChildID: nextLeaf}
			nextLeaf++
			return
		}
		prop := int(propCode - 1)
		cr := ranges[prop]
		splitval := DecodeInt(dec, splitCoder, DefaultTable, cr.Lo, cr.Hi-1)

		childBase := len(ft.Inner)
		ft.Inner = append(ft.Inner, innerNode{}, innerNode{})
		ft.Inner[pos] = innerNode{Property: prop, SplitVal: splitval, ChildID: childBase}

		fill(childBase+1, ranges.withBound(prop, cr.Lo, splitval))
		fill(childBase, ranges.withBound(prop, splitval+1, cr.Hi))
	}
	fill(0, ft.Range.clone())
	ft.NumLeaves = nextLeaf
	return ft
}

// FinalCoder codes pixel symbols through a frozen tree during the final
// pass: every leaf gets its own fresh SymbolChance, created the first
// time that leaf is visited, identically on the encode and decode side.
type FinalCoder struct {
	Tree       *FrozenTree
	leaves     []*SymbolChance
	zeroChance uint16
}

// NewFinalCoder returns a FinalCoder over ft, seeding every leaf's
// chances lazily from zeroChance (the per-group override, or
// maniac.ZeroChance for the default).
func NewFinalCoder(ft *FrozenTree, zeroChance uint16) *FinalCoder {
	return &FinalCoder{Tree: ft, leaves: make([]*SymbolChance, ft.NumLeaves), zeroChance: zeroChance}
}

func (fc *FinalCoder) leaf(idx int) *SymbolChance {
	if fc.leaves[idx] == nil {
		fc.leaves[idx] = NewSymbolChance(fc.zeroChance)
	}
	return fc.leaves[idx]
}

// EncodeSymbol codes val, navigating the tree with properties.
func (fc *FinalCoder) EncodeSymbol(enc *rac.Encoder, properties []int32, minV, maxV, val int32) {
	idx := fc.Tree.Navigate(properties)
	EncodeInt(enc, fc.leaf(idx), DefaultTable, minV, maxV, val)
}

// DecodeSymbol decodes one value, navigating the tree with properties.
func (fc *FinalCoder) DecodeSymbol(dec *rac.Decoder, properties []int32, minV, maxV int32) int32 {
	idx := fc.Tree.Navigate(properties)
	return DecodeInt(dec, fc.leaf(idx), DefaultTable, minV, maxV)
}
