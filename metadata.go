package profiler

import "cloud.google.com/go/compute/metadata"

// discoverMetadata fills Zone and Instance on cfg from the GCE metadata
// server when they're empty, matching spec.md §6's auto-discovery note.
// Failure to reach the metadata server (e.g. not running on GCE) is not
// fatal: the fields are simply left blank.
func discoverMetadata(cfg *Config, log logEntry) {
	if !metadata.OnGCE() {
		log.Debugf("metadata discovery skipped: not running on GCE")
		return
	}

	if cfg.Zone == "" {
		if z, err := metadata.Zone(); err == nil {
			cfg.Zone = z
		} else {
			log.Debugf("metadata zone discovery failed: %v", err)
		}
	}
	if cfg.Instance == "" {
		if n, err := metadata.InstanceName(); err == nil {
			cfg.Instance = n
		} else {
			log.Debugf("metadata instance discovery failed: %v", err)
		}
	}
}
