package pprofile

import "testing"

// TestInternIdempotence exercises testable property 3: repeated
// getOrAdd calls for the same node return the same ID, and the backing
// table does not grow on the second call.
func TestInternIdempotence(t *testing.T) {
	in := newInterner()
	node := &SamplerNode{Name: "f", ScriptID: 1, Filename: "a.js", Line: 10}

	id1 := in.internFunction(node)
	id2 := in.internFunction(node)
	if id1 != id2 {
		t.Fatalf("function IDs differ across calls: %d != %d", id1, id2)
	}
	if len(in.functions) != 1 {
		t.Fatalf("want 1 function after two getOrAdd calls, got %d", len(in.functions))
	}

	lid1 := in.internLocation(node)
	lid2 := in.internLocation(node)
	if lid1 != lid2 {
		t.Fatalf("location IDs differ across calls: %d != %d", lid1, lid2)
	}
	if len(in.locations) != 1 {
		t.Fatalf("want 1 location after two getOrAdd calls, got %d", len(in.locations))
	}

	sidx1 := in.internString("hello")
	sidx2 := in.internString("hello")
	if sidx1 != sidx2 {
		t.Fatalf("string indices differ across calls: %d != %d", sidx1, sidx2)
	}
}

func TestStringTableSeed(t *testing.T) {
	in := newInterner()
	if len(in.strings) != 1 || in.strings[0] != "" {
		t.Fatalf("want seeded string table [\"\"], got %v", in.strings)
	}
	if idx := in.internString(""); idx != 0 {
		t.Fatalf("want empty string at index 0, got %d", idx)
	}
}

// TestFunctionKeyDisambiguatesScripts covers the composite function key
// rationale in spec.md §4.2: two modules defining a same-named function
// must not collapse into one entry.
func TestFunctionKeyDisambiguatesScripts(t *testing.T) {
	in := newInterner()
	a := &SamplerNode{Name: "f", ScriptID: 1, Filename: "a.js", Line: 1}
	b := &SamplerNode{Name: "f", ScriptID: 2, Filename: "b.js", Line: 1}

	idA := in.internFunction(a)
	idB := in.internFunction(b)
	if idA == idB {
		t.Fatalf("expected distinct function IDs for distinct scriptIds, got %d and %d", idA, idB)
	}
	if len(in.functions) != 2 {
		t.Fatalf("want 2 functions, got %d", len(in.functions))
	}
}
