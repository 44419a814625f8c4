package profiler

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the configuration surface from spec.md §6. Every field is
// optional unless noted; ProjectID and Service are required before the
// agent will start (see Validate).
type Config struct {
	// ProjectID is the GCP project the deployment belongs to. Required.
	ProjectID string
	// Service is the deployment target (serviceContext.service).
	// Required.
	Service string
	// ServiceVersion is the deployment version label
	// (serviceContext.version).
	ServiceVersion string

	// Zone and Instance are labels attached to the deployment. When
	// empty, the agent auto-discovers them from the GCE metadata
	// server (see metadata.go).
	Zone     string
	Instance string

	// DisableTime and DisableHeap suppress the corresponding profile
	// kind in the POLL request and skip sampler initialization.
	DisableTime bool
	DisableHeap bool

	// TimeIntervalMicros is the CPU sampling period. Default 1000.
	TimeIntervalMicros int64
	// HeapIntervalBytes is the number of bytes between heap samples.
	// Default 512 KiB.
	HeapIntervalBytes int64
	// HeapMaxStackDepth bounds heap sample stack depth. Default 32.
	HeapMaxStackDepth int

	// MinProfilingIntervalMillis lower-bounds time between profiles.
	// Default 60000.
	MinProfilingIntervalMillis int64
	// BackoffMillis is the delay after a retriable POLL error, used
	// when the server doesn't supply its own backoff hint. Default
	// 1000.
	BackoffMillis int64

	// LogLevel is 0-5, matching spec.md's logLevel option.
	LogLevel int

	// BaseURL is the control plane's base URL. Defaults to the
	// production Profiler endpoint.
	BaseURL string
}

const defaultBaseURL = "https://cloudprofiler.googleapis.com/v2"

// DefaultConfig returns the configuration defaults from spec.md §6.
func DefaultConfig() Config {
	return Config{
		TimeIntervalMicros:         1000,
		HeapIntervalBytes:          512 * 1024,
		HeapMaxStackDepth:          32,
		MinProfilingIntervalMillis: 60000,
		BackoffMillis:              1000,
		BaseURL:                    defaultBaseURL,
	}
}

// Validate returns the Configuration-class error from spec.md §7 when a
// required field is missing and not discoverable.
func (c Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("%w: projectId", ErrMissingConfig)
	}
	if c.Service == "" {
		return fmt.Errorf("%w: service", ErrMissingConfig)
	}
	return nil
}

// LoadConfig layers the environment overlay from spec.md §6 beneath an
// explicit Config supplied by the embedding application: defaults, then
// GCLOUD_PROFILER_CONFIG (a plain KEY=VALUE file), then the named
// environment variables, then any non-zero field already set on
// explicit wins over all of them. Zone/Instance auto-discovery from GCE
// metadata happens separately in Start, since it needs network access.
func LoadConfig(explicit Config) (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("GCLOUD_PROFILER_CONFIG"); path != "" {
		overlay, err := readPlainConfigFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading GCLOUD_PROFILER_CONFIG: %w", err)
		}
		applyPlainOverlay(&cfg, overlay)
	}

	if v := os.Getenv("GCLOUD_PROJECT"); v != "" {
		cfg.ProjectID = v
	}
	if v := os.Getenv("GAE_SERVICE"); v != "" {
		cfg.Service = v
	}
	if v := os.Getenv("GAE_VERSION"); v != "" {
		cfg.ServiceVersion = v
	}
	if v := os.Getenv("GCLOUD_PROFILER_LOGLEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LogLevel = n
		}
	}

	mergeExplicit(&cfg, explicit)
	return cfg, nil
}

// readPlainConfigFile parses a minimal "key = value" / "key=value" file,
// one setting per line, '#' starting a comment. This is the config-file
// shape ff.PlainParser also accepts in cmd/profileragent, kept here as a
// tiny standalone reader so the library itself has no flag.FlagSet
// dependency.
func readPlainConfigFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func applyPlainOverlay(cfg *Config, overlay map[string]string) {
	if v, ok := overlay["projectId"]; ok {
		cfg.ProjectID = v
	}
	if v, ok := overlay["service"]; ok {
		cfg.Service = v
	}
	if v, ok := overlay["serviceVersion"]; ok {
		cfg.ServiceVersion = v
	}
	if v, ok := overlay["zone"]; ok {
		cfg.Zone = v
	}
	if v, ok := overlay["instance"]; ok {
		cfg.Instance = v
	}
	if v, ok := overlay["disableTime"]; ok {
		cfg.DisableTime, _ = strconv.ParseBool(v)
	}
	if v, ok := overlay["disableHeap"]; ok {
		cfg.DisableHeap, _ = strconv.ParseBool(v)
	}
	if v, ok := overlay["timeIntervalMicros"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TimeIntervalMicros = n
		}
	}
	if v, ok := overlay["heapIntervalBytes"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.HeapIntervalBytes = n
		}
	}
	if v, ok := overlay["heapMaxStackDepth"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HeapMaxStackDepth = n
		}
	}
	if v, ok := overlay["minProfilingIntervalMillis"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MinProfilingIntervalMillis = n
		}
	}
	if v, ok := overlay["backoffMillis"]; ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.BackoffMillis = n
		}
	}
	if v, ok := overlay["baseUrl"]; ok {
		cfg.BaseURL = v
	}
}

func mergeExplicit(cfg *Config, explicit Config) {
	if explicit.ProjectID != "" {
		cfg.ProjectID = explicit.ProjectID
	}
	if explicit.Service != "" {
		cfg.Service = explicit.Service
	}
	if explicit.ServiceVersion != "" {
		cfg.ServiceVersion = explicit.ServiceVersion
	}
	if explicit.Zone != "" {
		cfg.Zone = explicit.Zone
	}
	if explicit.Instance != "" {
		cfg.Instance = explicit.Instance
	}
	if explicit.DisableTime {
		cfg.DisableTime = true
	}
	if explicit.DisableHeap {
		cfg.DisableHeap = true
	}
	if explicit.TimeIntervalMicros != 0 {
		cfg.TimeIntervalMicros = explicit.TimeIntervalMicros
	}
	if explicit.HeapIntervalBytes != 0 {
		cfg.HeapIntervalBytes = explicit.HeapIntervalBytes
	}
	if explicit.HeapMaxStackDepth != 0 {
		cfg.HeapMaxStackDepth = explicit.HeapMaxStackDepth
	}
	if explicit.MinProfilingIntervalMillis != 0 {
		cfg.MinProfilingIntervalMillis = explicit.MinProfilingIntervalMillis
	}
	if explicit.BackoffMillis != 0 {
		cfg.BackoffMillis = explicit.BackoffMillis
	}
	if explicit.LogLevel != 0 {
		cfg.LogLevel = explicit.LogLevel
	}
	if explicit.BaseURL != "" {
		cfg.BaseURL = explicit.BaseURL
	}
}
