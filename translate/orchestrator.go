package translate

import (
	"context"
	"fmt"
	"time"

	"github.com/minios-linux/xckit/xcstrings"
)

// ---------------------------------------------------------------------------
// Translation options
// ---------------------------------------------------------------------------

// Options controls one orchestration run.
type Options struct {
	// Provider is the AI provider configuration.
	Provider Provider
	// Translator overrides the provider-backed translator when set
	// (used by tests and alternative backends).
	Translator Translator
	// Language is the target language code (e.g., "ru", "de").
	Language string
	// Selection picks which keys to translate (default: all).
	Selection Selection
	// ChunkSize is how many strings to translate per API call (0 = default 50).
	ChunkSize int
	// MaxConcurrentChunks caps how many chunk calls run at once (0 = default 2).
	MaxConcurrentChunks int
	// RateLimitDelay is the minimum spacing between chunk call starts
	// (negative = invalid; 0 = default 1s; use NoRateLimit to disable).
	RateLimitDelay time.Duration
	// NoRateLimit disables start spacing entirely.
	NoRateLimit bool
	// Timeout is the per-chunk call timeout (0 = provider timeout).
	Timeout time.Duration
	// Temperature for the model call (0 = default 0.3).
	Temperature float64
	// SystemPrompt overrides the default system prompt.
	SystemPrompt string
	// OnProgress is called after each chunk resolves (done/total chunks).
	OnProgress func(lang string, done, total int)
	// OnLog emits log messages during translation.
	OnLog func(format string, args ...any)
	// OnError emits error messages during translation.
	OnError func(format string, args ...any)
	// Verbose enables detailed logging.
	Verbose bool
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveChunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return 50
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrentChunks > 0 {
		return o.MaxConcurrentChunks
	}
	return 2
}

func (o *Options) effectiveRateLimitDelay() time.Duration {
	if o.NoRateLimit {
		return 0
	}
	if o.RateLimitDelay > 0 {
		return o.RateLimitDelay
	}
	return time.Second
}

func (o *Options) effectiveTemperature() float64 {
	if o.Temperature > 0 {
		return o.Temperature
	}
	return 0.3
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.Provider.Timeout > 0 {
		return o.Provider.Timeout
	}
	return 120 * time.Second
}

// validate rejects option values that cannot be defaulted away. Invalid
// configuration aborts the run before any external call.
func (o *Options) validate() error {
	if o.Language == "" {
		return fmt.Errorf("%w: target language is required", ErrConfig)
	}
	if o.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size must be at least 1, got %d", ErrConfig, o.ChunkSize)
	}
	if o.MaxConcurrentChunks < 0 {
		return fmt.Errorf("%w: max concurrent chunks must be at least 1, got %d", ErrConfig, o.MaxConcurrentChunks)
	}
	if o.RateLimitDelay < 0 {
		return fmt.Errorf("%w: rate limit delay must not be negative, got %v", ErrConfig, o.RateLimitDelay)
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		return fmt.Errorf("%w: temperature must be within 0.0-1.0, got %g", ErrConfig, o.Temperature)
	}
	return nil
}

func (o *Options) translator() Translator {
	if o.Translator != nil {
		return o.Translator
	}
	return &ProviderTranslator{
		Provider:     o.Provider,
		Temperature:  o.effectiveTemperature(),
		SystemPrompt: o.SystemPrompt,
		OnLog:        o.OnLog,
	}
}

// ---------------------------------------------------------------------------
// Orchestration
// ---------------------------------------------------------------------------

// Run translates the selected keys of a catalog into opts.Language and
// returns the aggregated job. The catalog itself is never touched: applying
// the results is the merge step, run only after the whole job resolved.
//
// Chunk failures never abort the run; a chunk that fails with a transient
// error (rate limit, timeout, 5xx) is retried exactly once. The returned
// error is non-nil only for errors that abort before dispatch (invalid
// configuration, unknown keys).
//
// Cancelling ctx stops new chunk dispatches; calls already in flight finish
// and their results are kept.
func Run(ctx context.Context, cat *xcstrings.File, opts Options) (*Job, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	units, err := Extract(cat, opts.Language, opts.Selection)
	if err != nil {
		return nil, err
	}

	chunks, err := Split(units, opts.effectiveChunkSize())
	if err != nil {
		return nil, err
	}

	job := newJob(cat.SourceLanguage(), opts.Language, chunks)
	if len(chunks) == 0 {
		job.finalize()
		return job, nil
	}

	opts.log("Translating %d strings to %s in %d chunks", len(units), opts.Language, len(chunks))

	tr := opts.translator()
	gate := NewGate(opts.effectiveRateLimitDelay())
	d := &Dispatcher{
		MaxConcurrent: opts.effectiveMaxConcurrent(),
		Gate:          gate,
	}

	fn := func(ctx context.Context, index int, chunk []Unit) (map[string]string, error) {
		result, err := translateChunk(ctx, tr, job, chunk, opts)
		if err == nil || !KindOf(err).Transient() {
			return result, err
		}

		// One retry for transient failures. The retry is a fresh call
		// start, so it goes through the rate gate like any other.
		opts.logError("Chunk %d/%d failed (%v), retrying once", index+1, len(chunks), err)
		if terr, ok := err.(*Error); ok && terr.RetryAfter > 0 {
			select {
			case <-ctx.Done():
				return nil, err
			case <-time.After(terr.RetryAfter):
			}
		}
		if gerr := gate.Wait(ctx); gerr != nil {
			return nil, err
		}
		return translateChunk(ctx, tr, job, chunk, opts)
	}

	done := 0
	for res := range d.Dispatch(ctx, chunks, fn) {
		job.record(res)
		done++
		if res.Err != nil {
			opts.logError("Chunk %d/%d failed: %v", res.Index+1, len(chunks), res.Err)
		} else if opts.Verbose {
			opts.log("Chunk %d/%d done (%d strings)", res.Index+1, len(chunks), len(res.Translations))
		}
		if opts.OnProgress != nil {
			opts.OnProgress(opts.Language, done, len(chunks))
		}
	}

	job.finalize()
	return job, nil
}

// translateChunk runs one provider call under the per-chunk timeout.
func translateChunk(ctx context.Context, tr Translator, job *Job, chunk []Unit, opts Options) (map[string]string, error) {
	callCtx, cancel := context.WithTimeout(ctx, opts.effectiveTimeout())
	defer cancel()
	return tr.TranslateBatch(callCtx, job.SourceLang, job.TargetLang, chunk)
}
