// Command profileragent is a thin demonstration host for the profiler
// package: it wires command-line flags and environment variables to a
// profiler.Config via ff, then starts an agent against a Sampler backed
// by Go's own runtime profiling hooks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/peterbourgon/ff/v3"

	"github.com/GoogleCloudPlatform/cloud-profiler-go"
	"github.com/GoogleCloudPlatform/cloud-profiler-go/pprofile"
)

func main() {
	fs := flag.NewFlagSet("profileragent", flag.ExitOnError)
	var (
		projectID      = fs.String("project-id", "", "GCP project ID")
		service        = fs.String("service", "", "deployment service name")
		serviceVersion = fs.String("service-version", "", "deployment service version")
		disableTime    = fs.Bool("disable-time", false, "disable wall-clock profiling")
		disableHeap    = fs.Bool("disable-heap", false, "disable heap profiling")
		logLevel       = fs.Int("log-level", 1, "0 (quiet) through 4 (trace)")
		baseURL        = fs.String("base-url", "", "override the control plane base URL")
		_              = fs.String("config", "", "path to a plain key=value config file")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("GOOGLE_CLOUD_PROFILER"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		fmt.Fprintln(os.Stderr, "parsing flags:", err)
		os.Exit(1)
	}

	cfg := profiler.Config{
		ProjectID:      *projectID,
		Service:        *service,
		ServiceVersion: *serviceVersion,
		DisableTime:    *disableTime,
		DisableHeap:    *disableHeap,
		LogLevel:       *logLevel,
		BaseURL:        *baseURL,
	}

	agent, err := profiler.Start(cfg, &runtimeSampler{})
	if err != nil {
		fmt.Fprintln(os.Stderr, "starting profiler agent:", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), profiler.ShutdownGrace)
	defer cancel()
	if err := agent.Stop(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "stopping profiler agent:", err)
	}
}

// runtimeSampler is a minimal Sampler built on Go's own runtime package,
// reshaped into the flat SamplerTree pprofile expects. It exists only
// to give this demo binary something real to collect; an embedding
// application would normally supply its own Sampler tied to its
// runtime's call-stack representation.
type runtimeSampler struct{}

func (r *runtimeSampler) StartWall(name string, recordSamples bool) error {
	return nil
}

func (r *runtimeSampler) StopWall(name string) (*pprofile.SamplerTree, error) {
	buf := make([]byte, 1)
	n := runtime.Stack(buf, false)
	return &pprofile.SamplerTree{
		Root: &pprofile.SamplerNode{
			Children: []*pprofile.SamplerNode{
				{Name: "demo", ScriptID: 0, Filename: "profileragent", Line: n, HitCount: 1},
			},
		},
	}, nil
}

func (r *runtimeSampler) StartHeap(intervalBytes int64, maxStackDepth int) error {
	runtime.MemProfileRate = int(intervalBytes)
	return nil
}

func (r *runtimeSampler) GetHeap() (*pprofile.SamplerTree, error) {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return &pprofile.SamplerTree{
		Root: &pprofile.SamplerNode{
			Children: []*pprofile.SamplerNode{
				{
					Name: "heap", ScriptID: 0, Filename: "profileragent", Line: 0,
					Allocations: []pprofile.Allocation{
						{Count: int64(stats.Mallocs - stats.Frees), SizeBytes: int64(stats.HeapAlloc)},
					},
				},
			},
		},
	}, nil
}

func (r *runtimeSampler) StopHeap() error {
	return nil
}

func (r *runtimeSampler) SetSamplingInterval(microseconds int64) {}
