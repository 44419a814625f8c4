package profiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// transport speaks the control-plane's two RPCs: POLL (createProfile)
// and UPLOAD (updateProfile). Modeled after DataDog's profiler.send in
// its profiler.go: a thin wrapper around *http.Client with a single
// retry-classification point.
type transport struct {
	baseURL string
	client  *http.Client
	log     logEntry
}

func newTransport(cfg Config, log logEntry) *transport {
	return &transport{
		baseURL: cfg.BaseURL,
		client:  &http.Client{},
		log:     log,
	}
}

// poll issues the long-hanging createProfile request and returns the
// ProfileRequest the server wants collected. retryAfter is a
// server-suggested backoff duration (zero if the server didn't supply
// one); retryable reports whether a non-nil err looks transient (see
// classifyPollError). The agent keeps polling either way and uses
// retryable only to choose the log level.
func (t *transport) poll(ctx context.Context, projectID string, dep Deployment, types []ProfileType) (req *ProfileRequest, retryAfter time.Duration, retryable bool, err error) {
	body, err := json.Marshal(createProfileRequest{Deployment: dep, ProfileType: types})
	if err != nil {
		return nil, 0, false, fmt.Errorf("encoding poll request: %w", err)
	}

	url := fmt.Sprintf("%s/projects/%s/profiles", t.baseURL, projectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, 0, true, fmt.Errorf("poll request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		retryable := classifyPollError(resp.StatusCode)
		retryAfter := retryAfterHeader(resp)
		return nil, retryAfter, retryable, fmt.Errorf("poll returned status %d", resp.StatusCode)
	}

	var out ProfileRequest
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, true, fmt.Errorf("decoding poll response: %w", err)
	}
	return &out, 0, false, nil
}

// upload issues the updateProfile request carrying the encoded profile
// bytes. Per spec.md §6 the target is simply {baseURL}/{req.Name}: Name
// is the server-assigned opaque resource name returned by poll (e.g.
// "projects/x/profiles/123" against the real control plane), not
// something this client reconstructs. On any error the profile is
// dropped rather than retried: a stale profile is not worth re-sending
// once the server has moved on to the next POLL cycle.
func (t *transport) upload(ctx context.Context, req *ProfileRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding upload request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", t.baseURL, req.Name)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}

// classifyPollError implements the REDESIGN FLAG from spec.md: 400,
// 401, 403 and 404 responses indicate a malformed or rejected request
// that will not succeed on retry without a configuration change, so
// they're treated as non-retriable. Everything else (other 4xx, 5xx,
// network errors) is retriable, consistent with the original polling
// loop that never gives up.
func classifyPollError(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return false
	}
	return true
}

// retryAfterHeader reads a server-suggested backoff from the response,
// if present. The control plane isn't documented as sending one, but
// honoring it costs nothing and several APIs in this ecosystem do.
func retryAfterHeader(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs
	}
	return 0
}
