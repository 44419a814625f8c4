package pprofile

import (
	"bytes"
	"compress/gzip"
	"testing"

	googlepprof "github.com/google/pprof/profile"
)

// gzipWire is a minimal local helper mirroring EncodeProfileBytes but
// returning raw gzip bytes instead of base64, so tests can feed the
// reference decoder directly.
func gzipWire(t *testing.T, p *Profile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(p.Marshal()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

// TestWireRoundTrip exercises testable property 4: encoding a Profile
// then decoding with a reference pprof decoder yields a structurally
// equal message (ignoring field-order differences in packed repeated
// scalars).
func TestWireRoundTrip(t *testing.T) {
	tree := &SamplerTree{
		Root: &SamplerNode{
			Children: []*SamplerNode{
				{Name: "f", ScriptID: 1, Filename: "a.js", Line: 10, HitCount: 3},
			},
		},
		StartTimeNanos: 0,
		EndTimeNanos:   10e9,
	}

	prof := BuildTimeProfile(tree, 1000)
	decoded, err := googlepprof.Parse(bytes.NewReader(gzipWire(t, prof)))
	if err != nil {
		t.Fatalf("reference decoder failed: %v", err)
	}

	if len(decoded.Sample) != 1 {
		t.Fatalf("want 1 sample, got %d", len(decoded.Sample))
	}
	s := decoded.Sample[0]
	if len(s.Value) != 2 || s.Value[0] != 3 || s.Value[1] != 3000 {
		t.Errorf("unexpected sample values: %v", s.Value)
	}
	if len(s.Location) != 1 || s.Location[0].ID != 1 {
		t.Errorf("unexpected sample location: %+v", s.Location)
	}

	if len(decoded.Function) != 1 {
		t.Fatalf("want 1 function, got %d", len(decoded.Function))
	}
	fn := decoded.Function[0]
	if fn.Name != "f" || fn.SystemName != "f" || fn.Filename != "a.js" || fn.StartLine != 10 {
		t.Errorf("unexpected function: %+v", fn)
	}

	if len(decoded.SampleType) != 2 {
		t.Fatalf("want 2 sample types, got %d", len(decoded.SampleType))
	}
	if decoded.SampleType[0].Type != "samples" || decoded.SampleType[0].Unit != "count" {
		t.Errorf("unexpected sample type[0]: %+v", decoded.SampleType[0])
	}
	if decoded.SampleType[1].Type != "time" || decoded.SampleType[1].Unit != "microseconds" {
		t.Errorf("unexpected sample type[1]: %+v", decoded.SampleType[1])
	}
	if decoded.PeriodType.Type != "time" || decoded.PeriodType.Unit != "microseconds" {
		t.Errorf("unexpected period type: %+v", decoded.PeriodType)
	}
	if decoded.Period != 1000 {
		t.Errorf("want period 1000, got %d", decoded.Period)
	}
	if decoded.DurationNanos != 10e9 {
		t.Errorf("want duration 10e9, got %d", decoded.DurationNanos)
	}
}

// TestZeroSuppression exercises testable property 8: a ProfileFunction
// with StartLine == 0 emits no bytes for field 5, and a reference
// decoder reproduces the same function (StartLine defaults to 0).
func TestZeroSuppression(t *testing.T) {
	tree := &SamplerTree{
		Root: &SamplerNode{
			Children: []*SamplerNode{
				{Name: "g", ScriptID: 1, Filename: "b.js", Line: 0, HitCount: 1},
			},
		},
	}
	prof := BuildTimeProfile(tree, 1000)
	decoded, err := googlepprof.Parse(bytes.NewReader(gzipWire(t, prof)))
	if err != nil {
		t.Fatalf("reference decoder failed: %v", err)
	}
	if len(decoded.Function) != 1 {
		t.Fatalf("want 1 function, got %d", len(decoded.Function))
	}
	if decoded.Function[0].StartLine != 0 {
		t.Errorf("want StartLine 0, got %d", decoded.Function[0].StartLine)
	}
}

func TestEncodeProfileBytesBase64(t *testing.T) {
	tree := &SamplerTree{Root: &SamplerNode{Children: []*SamplerNode{
		{Name: "f", ScriptID: 1, Filename: "a.js", Line: 1, HitCount: 1},
	}}}
	prof := BuildTimeProfile(tree, 1000)
	s, err := EncodeProfileBytes(prof)
	if err != nil {
		t.Fatalf("EncodeProfileBytes: %v", err)
	}
	if s == "" {
		t.Fatal("expected non-empty base64 payload")
	}
}
