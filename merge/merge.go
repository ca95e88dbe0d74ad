// Package merge applies the results of a resolved translation job back into
// an Xcode String Catalog.
package merge

import (
	"fmt"

	"github.com/minios-linux/xckit/translate"
	"github.com/minios-linux/xckit/xcstrings"
)

// Summary reports what a merge changed.
type Summary struct {
	// Applied is the number of translations written into the catalog.
	Applied int
	// FailedKeys maps every key that was not translated to the reason.
	FailedKeys map[string]string
}

// Apply writes every successful translation from the job into the catalog
// as a translated stringUnit for the job's target language. Keys belonging
// to failed chunks are left exactly as they were and reported in the
// summary. Nothing outside the job's target set (other keys, other
// languages, entry metadata, key order) is touched.
//
// Apply expects a job whose dispatch has fully resolved; merging is never
// incremental per chunk, so readers of the catalog see either the state
// before the run or the state after it.
func Apply(cat *xcstrings.File, job *translate.Job) (Summary, error) {
	if job.Status() == translate.StatusRunning {
		return Summary{}, fmt.Errorf("job %s is still running", job.ID)
	}

	summary := Summary{FailedKeys: job.FailedKeys()}

	for key, text := range job.Results() {
		if err := cat.SetTranslation(key, job.TargetLang, text, xcstrings.StateTranslated); err != nil {
			return summary, fmt.Errorf("applying %q: %w", key, err)
		}
		summary.Applied++
	}

	return summary, nil
}
