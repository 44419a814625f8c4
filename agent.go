package profiler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/cloud-profiler-go/pprofile"
)

// ShutdownGrace is a reasonable default timeout for Stop: long enough
// to let an in-flight upload finish, short enough not to hang a process
// shutdown indefinitely.
const ShutdownGrace = 5 * time.Second

// Agent drives the POLL -> COLLECT -> UPLOAD loop from spec.md §5 on a
// dedicated goroutine. Grounded on DataDog's dd-trace-go profiler: one
// goroutine, an exit channel closed exactly once by Stop, and a done
// channel Stop waits on so shutdown is synchronous from the caller's
// point of view.
type Agent struct {
	cfg        Config
	deployment Deployment
	types      []ProfileType
	sampler    Sampler
	transport  *transport
	log        logEntry

	exit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// lastCycleAt tracks when the previous COLLECT/UPLOAD cycle ended,
	// so run can enforce MinProfilingIntervalMillis as a client-side
	// floor between profiles (see enforceMinInterval).
	lastCycleAt time.Time
}

// Start validates cfg, resolves deployment metadata, and launches the
// agent loop in the background. The returned Agent is already polling;
// call Stop to shut it down.
func Start(cfg Config, sampler Sampler) (*Agent, error) {
	resolved, err := LoadConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	log := newLogger(resolved.LogLevel)
	discoverMetadata(&resolved, log)

	var types []ProfileType
	if !resolved.DisableTime {
		types = append(types, ProfileTypeWall)
		sampler.SetSamplingInterval(resolved.TimeIntervalMicros)
	}
	if !resolved.DisableHeap {
		types = append(types, ProfileTypeHeap)
	}

	a := &Agent{
		cfg: resolved,
		deployment: Deployment{
			ProjectID: resolved.ProjectID,
			Target:    resolved.Service,
			Labels:    deploymentLabels(resolved),
		},
		types:     types,
		sampler:   sampler,
		transport: newTransport(resolved, log),
		log:       log,
		exit:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	go a.run()
	return a, nil
}

func deploymentLabels(cfg Config) map[string]string {
	labels := make(map[string]string, 3)
	if cfg.ServiceVersion != "" {
		labels["version"] = cfg.ServiceVersion
	}
	if cfg.Zone != "" {
		labels["zone"] = cfg.Zone
	}
	if cfg.Instance != "" {
		labels["instance"] = cfg.Instance
	}
	return labels
}

// Stop signals the agent loop to exit and blocks until it has, or until
// ctx is done, whichever comes first. Calling Stop more than once
// returns ErrAlreadyStopped on the second and later calls.
func (a *Agent) Stop(ctx context.Context) error {
	stopped := true
	a.stopOnce.Do(func() {
		stopped = false
		close(a.exit)
	})
	if stopped {
		return ErrAlreadyStopped
	}

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Agent) run() {
	defer close(a.done)

	for {
		req, ok := a.pollUntilSuccess()
		if !ok {
			return
		}

		prof, err := a.collect(req)
		if err != nil {
			a.log.Warnf("collect failed for %s profile: %v", req.ProfileType, err)
			a.enforceMinInterval()
			continue
		}

		if err := a.uploadProfile(req, prof); err != nil {
			a.log.Warnf("upload failed for %s profile: %v", req.ProfileType, err)
		}
		a.enforceMinInterval()
	}
}

// enforceMinInterval sleeps, if needed, so that at least
// MinProfilingIntervalMillis elapses between the end of one COLLECT/
// UPLOAD cycle and the start of the next POLL. The control plane is the
// authority on scheduling — this is a client-side floor against a
// misbehaving or overly eager server, per spec.md §6's configuration
// table.
func (a *Agent) enforceMinInterval() {
	now := time.Now()
	if !a.lastCycleAt.IsZero() {
		min := time.Duration(a.cfg.MinProfilingIntervalMillis) * time.Millisecond
		if elapsed := now.Sub(a.lastCycleAt); elapsed < min {
			a.interruptibleSleep(min - elapsed)
		}
	}
	a.lastCycleAt = time.Now()
}

// pollUntilSuccess retries poll internally, honoring backoff, until it
// either succeeds or the agent is asked to stop. This keeps the POLL
// state from spec.md §5 self-contained: the outer run loop only ever
// sees a successful ProfileRequest or a clean shutdown.
func (a *Agent) pollUntilSuccess() (*ProfileRequest, bool) {
	for {
		select {
		case <-a.exit:
			return nil, false
		default:
		}

		req, retryAfter, retryable, err := a.transport.poll(context.Background(), a.cfg.ProjectID, a.deployment, a.types)
		if err == nil {
			return req, true
		}

		if retryable {
			a.log.Debugf("poll error, retrying: %v", err)
		} else {
			a.log.Warnf("poll rejected, retrying after backoff: %v", err)
		}

		if !a.interruptibleSleep(backoffDuration(a.cfg, retryAfter)) {
			return nil, false
		}
	}
}

func backoffDuration(cfg Config, hint time.Duration) time.Duration {
	if hint > 0 {
		return hint
	}
	return time.Duration(cfg.BackoffMillis) * time.Millisecond
}

// interruptibleSleep blocks for d or until Stop is called, whichever
// comes first. Returns false if it was woken by a stop signal.
func (a *Agent) interruptibleSleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-a.exit:
		return false
	}
}

// collect runs the sampler for the requested profile type and builds
// the resulting pprof Profile, per spec.md §4's WALL/HEAP adapters.
func (a *Agent) collect(req *ProfileRequest) (*pprofile.Profile, error) {
	switch req.ProfileType {
	case ProfileTypeWall:
		if a.cfg.DisableTime {
			return nil, ErrProfilerDisabled
		}
		return a.collectWall(req)
	case ProfileTypeHeap:
		if a.cfg.DisableHeap {
			return nil, ErrProfilerDisabled
		}
		return a.collectHeap()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfileType, req.ProfileType)
	}
}

func (a *Agent) collectWall(req *ProfileRequest) (*pprofile.Profile, error) {
	duration := req.durationOrDefault(defaultWallDuration)
	name := fmt.Sprintf("%d", time.Now().UnixNano())

	if err := a.sampler.StartWall(name, true); err != nil {
		return nil, fmt.Errorf("starting wall sampling: %w", err)
	}

	if !a.interruptibleSleep(duration) {
		// Agent is stopping; still try to retrieve whatever was
		// collected so far rather than leaking the sampler session.
		_, _ = a.sampler.StopWall(name)
		return nil, ErrAlreadyStopped
	}

	tree, err := a.sampler.StopWall(name)
	if err != nil {
		return nil, fmt.Errorf("stopping wall sampling: %w", err)
	}
	return pprofile.BuildTimeProfile(tree, a.cfg.TimeIntervalMicros), nil
}

func (a *Agent) collectHeap() (*pprofile.Profile, error) {
	if err := a.sampler.StartHeap(a.cfg.HeapIntervalBytes, a.cfg.HeapMaxStackDepth); err != nil {
		return nil, fmt.Errorf("starting heap sampling: %w", err)
	}
	defer func() {
		if err := a.sampler.StopHeap(); err != nil {
			a.log.Warnf("stopping heap sampling: %v", err)
		}
	}()

	tree, err := a.sampler.GetHeap()
	if err != nil {
		return nil, fmt.Errorf("reading heap tree: %w", err)
	}
	return pprofile.BuildHeapProfile(tree, a.cfg.HeapIntervalBytes), nil
}

func (a *Agent) uploadProfile(req *ProfileRequest, prof *pprofile.Profile) error {
	encoded, err := pprofile.EncodeProfileBytes(prof)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	req.ProfileBytes = encoded
	return a.transport.upload(context.Background(), req)
}
