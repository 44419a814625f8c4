package profiler

import "github.com/GoogleCloudPlatform/cloud-profiler-go/pprofile"

// Sampler is the contract between the agent loop and whatever actually
// walks the host runtime's call stacks. The agent never inspects a
// running program itself — it drives a Sampler and hands the resulting
// tree to pprofile for encoding. This mirrors the teacher's own split
// between the wasm-level instrumentation and the tree it hands to
// wzprof.BuildProfile: here the instrumentation is out of scope (the
// host process, not this agent, owns it), so it's expressed as an
// interface an embedding application implements. Matches spec.md §4.4
// verbatim: exactly one wall-clock session may be active at a time,
// keyed by name; heap sampling is a singleton the core treats as
// already running once StartHeap succeeds.
type Sampler interface {
	// StartWall begins wall-clock sampling under the given profile
	// name. recordSamples mirrors spec.md §4.4's flag verbatim; this
	// agent always passes true. Returns an error if wall sampling is
	// already active.
	StartWall(name string, recordSamples bool) error

	// StopWall ends wall-clock sampling for name and returns the
	// collected tree.
	StopWall(name string) (*pprofile.SamplerTree, error)

	// StartHeap begins allocator sampling at the given byte interval,
	// keeping at most maxStackDepth frames per allocation site.
	StartHeap(intervalBytes int64, maxStackDepth int) error

	// GetHeap returns the current heap allocation tree without
	// stopping collection.
	GetHeap() (*pprofile.SamplerTree, error)

	// StopHeap ends allocator sampling.
	StopHeap() error

	// SetSamplingInterval adjusts the wall-clock sampling period.
	SetSamplingInterval(microseconds int64)
}
