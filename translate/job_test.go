package translate

import (
	"strings"
	"testing"
)

func jobChunks() [][]Unit {
	return [][]Unit{
		{{Key: "a", Source: "A"}, {Key: "b", Source: "B"}},
		{{Key: "c", Source: "C"}},
	}
}

func TestJob_IDAndCounts(t *testing.T) {
	job := newJob("en", "ru", jobChunks())

	if job.ID == "" {
		t.Fatal("job ID is empty")
	}
	other := newJob("en", "ru", jobChunks())
	if job.ID == other.ID {
		t.Fatal("two jobs share an ID")
	}

	if job.ChunkCount() != 2 {
		t.Errorf("ChunkCount() = %d, want 2", job.ChunkCount())
	}
	if job.UnitCount() != 3 {
		t.Errorf("UnitCount() = %d, want 3", job.UnitCount())
	}
	if job.Status() != StatusRunning {
		t.Errorf("Status() = %q, want running", job.Status())
	}
}

func TestJob_CompletedWhenAllChunksSucceed(t *testing.T) {
	job := newJob("en", "ru", jobChunks())
	job.record(ChunkResult{Index: 0, Translations: map[string]string{"a": "А", "b": "Б"}})
	job.record(ChunkResult{Index: 1, Translations: map[string]string{"c": "В"}})
	job.finalize()

	if job.Status() != StatusCompleted {
		t.Fatalf("Status() = %q, want completed", job.Status())
	}
	results := job.Results()
	if len(results) != 3 || results["a"] != "А" || results["c"] != "В" {
		t.Fatalf("Results() = %#v", results)
	}
	if failed := job.FailedKeys(); len(failed) != 0 {
		t.Fatalf("FailedKeys() = %#v, want empty", failed)
	}
}

func TestJob_CompletedWithErrorsOnFailedChunk(t *testing.T) {
	job := newJob("en", "ru", jobChunks())
	job.record(ChunkResult{Index: 0, Translations: map[string]string{"a": "А", "b": "Б"}})
	job.record(ChunkResult{Index: 1, Err: errorf(KindAuth, "nope")})
	job.finalize()

	if job.Status() != StatusCompletedWithErrors {
		t.Fatalf("Status() = %q, want completed-with-errors", job.Status())
	}

	results := job.Results()
	if len(results) != 2 {
		t.Fatalf("Results() has %d keys, want the 2 from the good chunk", len(results))
	}

	failed := job.FailedKeys()
	if len(failed) != 1 {
		t.Fatalf("FailedKeys() = %#v, want only c", failed)
	}
	if !strings.Contains(failed["c"], "nope") {
		t.Errorf("failure reason = %q, want chunk error", failed["c"])
	}
}

func TestJob_UnresolvedChunkReportsNotAttempted(t *testing.T) {
	job := newJob("en", "ru", jobChunks())
	job.record(ChunkResult{Index: 0, Translations: map[string]string{"a": "А", "b": "Б"}})
	// Chunk 1 never resolves.
	job.finalize()

	if job.Status() != StatusCompletedWithErrors {
		t.Fatalf("Status() = %q, want completed-with-errors", job.Status())
	}
	failed := job.FailedKeys()
	if failed["c"] != "not attempted" {
		t.Fatalf("failed[c] = %q, want \"not attempted\"", failed["c"])
	}
}

func TestJob_DuplicateRecordPanics(t *testing.T) {
	job := newJob("en", "ru", jobChunks())
	job.record(ChunkResult{Index: 0, Translations: map[string]string{}})

	defer func() {
		if recover() == nil {
			t.Fatal("recording the same chunk twice should panic")
		}
	}()
	job.record(ChunkResult{Index: 0, Translations: map[string]string{}})
}
