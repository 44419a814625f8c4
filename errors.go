package profiler

import "errors"

// Sentinel errors from spec.md §7's error taxonomy. Transport and
// protocol errors are wrapped ad hoc with fmt.Errorf instead, since
// they carry a status code or similar detail worth preserving.
var (
	// ErrMissingConfig means a required Config field (projectId,
	// service) was never set, by any layer of LoadConfig's overlay.
	ErrMissingConfig = errors.New("profiler: missing required configuration")

	// ErrProfilerDisabled is returned from collect when the server
	// requests a profile type the embedding Config has turned off.
	ErrProfilerDisabled = errors.New("profiler: requested profile type is disabled")

	// ErrUnknownProfileType is returned when a ProfileRequest names a
	// profileType this agent doesn't implement.
	ErrUnknownProfileType = errors.New("profiler: unknown profile type")

	// ErrAlreadyStopped is returned by Stop when called more than once.
	ErrAlreadyStopped = errors.New("profiler: agent already stopped")
)
