package translate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Status is the overall state of a translation job.
type Status string

const (
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed-with-errors"
)

// Job is the aggregate state of one orchestration run: the target language,
// the chunks that were dispatched, and one outcome per chunk. A job is
// mutated while the run is in flight and frozen once every chunk resolved.
type Job struct {
	// ID identifies the run in logs and summaries.
	ID string
	// SourceLang and TargetLang are the run's language pair.
	SourceLang string
	TargetLang string

	chunks [][]Unit

	mu       sync.Mutex
	outcomes map[int]ChunkResult
	status   Status
}

func newJob(sourceLang, targetLang string, chunks [][]Unit) *Job {
	return &Job{
		ID:         uuid.NewString(),
		SourceLang: sourceLang,
		TargetLang: targetLang,
		chunks:     chunks,
		outcomes:   make(map[int]ChunkResult, len(chunks)),
		status:     StatusRunning,
	}
}

// record stores one chunk outcome. Each chunk index is written exactly once;
// a duplicate write indicates a dispatcher bug and panics loudly rather than
// silently overwriting results.
func (j *Job) record(res ChunkResult) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, dup := j.outcomes[res.Index]; dup {
		panic(fmt.Sprintf("chunk %d resolved twice", res.Index))
	}
	j.outcomes[res.Index] = res
}

// finalize freezes the job's terminal status.
func (j *Job) finalize() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.status = StatusCompleted
	for i := range j.chunks {
		if res, ok := j.outcomes[i]; !ok || res.Err != nil {
			j.status = StatusCompletedWithErrors
			return
		}
	}
}

// Status returns the job's current status.
func (j *Job) Status() Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// ChunkCount returns how many chunks the run dispatched.
func (j *Job) ChunkCount() int { return len(j.chunks) }

// UnitCount returns how many units the run covers across all chunks.
func (j *Job) UnitCount() int {
	n := 0
	for _, c := range j.chunks {
		n += len(c)
	}
	return n
}

// Done returns how many chunks have resolved so far.
func (j *Job) Done() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.outcomes)
}

// Outcome returns the result of one chunk, if it has resolved.
func (j *Job) Outcome(index int) (ChunkResult, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	res, ok := j.outcomes[index]
	return res, ok
}

// Results returns the union of all successful chunk translations. Failed
// chunks contribute nothing; callers can still apply this partial progress.
func (j *Job) Results() map[string]string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string]string)
	for _, res := range j.outcomes {
		for key, text := range res.Translations {
			out[key] = text
		}
	}
	return out
}

// FailedKeys returns every key that did not get a translation, mapped to the
// reason (the failure of its chunk, or "not attempted" for chunks that never
// resolved).
func (j *Job) FailedKeys() map[string]string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make(map[string]string)
	for i, chunk := range j.chunks {
		res, ok := j.outcomes[i]
		if ok && res.Err == nil {
			continue
		}
		reason := "not attempted"
		if ok {
			reason = res.Err.Error()
		}
		for _, u := range chunk {
			out[u.Key] = reason
		}
	}
	return out
}
