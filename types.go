package profiler

import "time"

// ProfileType enumerates the profile kinds this agent can collect, per
// spec.md §3.
type ProfileType string

const (
	ProfileTypeWall ProfileType = "WALL"
	ProfileTypeHeap ProfileType = "HEAP"
)

// Deployment identifies the running instance to the control plane, per
// spec.md §3's deployment fields.
type Deployment struct {
	ProjectID string            `json:"projectId"`
	Target    string            `json:"target"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// ProfileRequest is both the POLL response and the UPLOAD request body,
// per spec.md §3 and §5: the server hands back a partially populated
// ProfileRequest naming what to collect, the agent fills in
// profileBytes and echoes the rest back unchanged.
type ProfileRequest struct {
	Name        string            `json:"name,omitempty"`
	ProfileType ProfileType       `json:"profileType"`
	Duration    string            `json:"duration,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	ProfileBytes string           `json:"profileBytes,omitempty"`
}

// defaultWallDuration is used when the server's duration field is
// absent or unparsable. See DESIGN.md's Open Question decision on
// server-supplied duration.
const defaultWallDuration = 10 * time.Second

// durationOrDefault parses req.Duration as a Go duration string (e.g.
// "10s"), the textual form the control plane uses for its
// google.protobuf.Duration field. Falls back to fallback when absent,
// malformed, or non-positive.
func (r *ProfileRequest) durationOrDefault(fallback time.Duration) time.Duration {
	if r.Duration == "" {
		return fallback
	}
	d, err := time.ParseDuration(r.Duration)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// createProfileRequest is the POLL request body: the agent announces
// its deployment and which profile types it is willing to collect.
type createProfileRequest struct {
	Deployment  Deployment    `json:"deployment"`
	ProfileType []ProfileType `json:"profileType"`
}
