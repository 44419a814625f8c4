package pprofile

import "golang.org/x/exp/slices"

// EmitFunc is the per-profile-kind hook ProfileBuilder calls at every
// visited node. Implementations append zero or more Samples built from
// the current leaf-first location path onto out. Modeled as a function
// value rather than an interface hierarchy per the "small polymorphic
// hook, not inheritance" design note.
type EmitFunc func(node *SamplerNode, path []uint64, out *[]*Sample)

// walk performs the depth-first, leaf-first traversal described in
// spec.md §4.3: visiting N computes its location ID, prepends it to the
// path, invokes emit, then recurses into each child with a shallow copy
// of the path so siblings never see each other's frames.
func walk(in *interner, node *SamplerNode, path []uint64, emit EmitFunc, out *[]*Sample) {
	lid := in.internLocation(node)

	next := make([]uint64, 0, len(path)+1)
	next = append(next, lid)
	next = append(next, path...)

	emit(node, next, out)

	for _, child := range node.Children {
		walk(in, child, slices.Clone(next), emit, out)
	}
}

// build runs walk over every child of tree.Root (the root itself is
// never part of a path) and returns the accumulated samples.
func build(tree *SamplerTree, in *interner, emit EmitFunc) []*Sample {
	var samples []*Sample
	for _, child := range tree.Root.Children {
		walk(in, child, nil, emit, &samples)
	}
	return samples
}

// wallEmit emits one Sample per node with HitCount > 0, scaling the
// second value by intervalMicros as spec.md's WALL adapter requires.
func wallEmit(intervalMicros int64) EmitFunc {
	return func(node *SamplerNode, path []uint64, out *[]*Sample) {
		if node.HitCount <= 0 {
			return
		}
		*out = append(*out, &Sample{
			LocationID: path,
			Value:      []int64{node.HitCount, node.HitCount * intervalMicros},
		})
	}
}

// heapEmit emits one Sample per allocation record on a node.
func heapEmit() EmitFunc {
	return func(node *SamplerNode, path []uint64, out *[]*Sample) {
		for _, a := range node.Allocations {
			*out = append(*out, &Sample{
				LocationID: path,
				Value:      []int64{a.Count, a.SizeBytes * a.Count},
			})
		}
	}
}

// BuildTimeProfile adapts a WALL SamplerTree into a pprof Profile. Values
// are [hitCount, hitCount*intervalMicros]; sampleType is
// [("samples","count"), ("time","microseconds")].
func BuildTimeProfile(tree *SamplerTree, intervalMicros int64) *Profile {
	in := newInterner()
	samplesIdx := in.internString("samples")
	countIdx := in.internString("count")
	timeIdx := in.internString("time")
	microsIdx := in.internString("microseconds")

	samples := build(tree, in, wallEmit(intervalMicros))

	return &Profile{
		SampleType: []ValueType{
			{TypeIdx: samplesIdx, UnitIdx: countIdx},
			{TypeIdx: timeIdx, UnitIdx: microsIdx},
		},
		Sample:        samples,
		Location:      in.locations,
		Function:      in.functions,
		StringTable:   in.strings,
		TimeNanos:     tree.StartTimeNanos,
		DurationNanos: tree.EndTimeNanos - tree.StartTimeNanos,
		PeriodType:    ValueType{TypeIdx: timeIdx, UnitIdx: microsIdx},
		Period:        intervalMicros,
	}
}

// BuildHeapProfile adapts a HEAP SamplerTree into a pprof Profile. Values
// are [count, sizeBytes*count] per allocation record; sampleType is
// [("samples","count"), ("space","bytes")].
func BuildHeapProfile(tree *SamplerTree, intervalBytes int64) *Profile {
	in := newInterner()
	samplesIdx := in.internString("samples")
	countIdx := in.internString("count")
	spaceIdx := in.internString("space")
	bytesIdx := in.internString("bytes")

	samples := build(tree, in, heapEmit())

	return &Profile{
		SampleType: []ValueType{
			{TypeIdx: samplesIdx, UnitIdx: countIdx},
			{TypeIdx: spaceIdx, UnitIdx: bytesIdx},
		},
		Sample:        samples,
		Location:      in.locations,
		Function:      in.functions,
		StringTable:   in.strings,
		TimeNanos:     tree.StartTimeNanos,
		DurationNanos: tree.EndTimeNanos - tree.StartTimeNanos,
		PeriodType:    ValueType{TypeIdx: spaceIdx, UnitIdx: bytesIdx},
		Period:        intervalBytes,
	}
}
