package profiler

import (
	"os"
	"testing"
)

func TestLoadConfigEnvOverlay(t *testing.T) {
	t.Setenv("GCLOUD_PROJECT", "env-project")
	t.Setenv("GAE_SERVICE", "env-service")
	t.Setenv("GAE_VERSION", "env-version")
	t.Setenv("GCLOUD_PROFILER_LOGLEVEL", "3")
	os.Unsetenv("GCLOUD_PROFILER_CONFIG")

	cfg, err := LoadConfig(Config{})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ProjectID != "env-project" || cfg.Service != "env-service" || cfg.ServiceVersion != "env-version" {
		t.Fatalf("unexpected env overlay: %+v", cfg)
	}
	if cfg.LogLevel != 3 {
		t.Errorf("want logLevel 3, got %d", cfg.LogLevel)
	}
	// Defaults still apply where no overlay touched them.
	if cfg.TimeIntervalMicros != 1000 {
		t.Errorf("want default timeIntervalMicros 1000, got %d", cfg.TimeIntervalMicros)
	}
}

func TestLoadConfigExplicitWinsOverEnv(t *testing.T) {
	t.Setenv("GCLOUD_PROJECT", "env-project")
	os.Unsetenv("GCLOUD_PROFILER_CONFIG")

	cfg, err := LoadConfig(Config{ProjectID: "explicit-project"})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ProjectID != "explicit-project" {
		t.Fatalf("want explicit config to win, got %q", cfg.ProjectID)
	}
}

func TestValidateRequiresProjectAndService(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Fatal("want error for empty config")
	}
	if err := (Config{ProjectID: "p"}).Validate(); err == nil {
		t.Fatal("want error when service missing")
	}
	if err := (Config{ProjectID: "p", Service: "s"}).Validate(); err != nil {
		t.Fatalf("want no error, got %v", err)
	}
}
