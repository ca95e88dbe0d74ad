// xckit is an AI translation kit for Xcode String Catalogs (.xcstrings).
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/minios-linux/xckit/config"
	"github.com/minios-linux/xckit/i18n"
	"github.com/minios-linux/xckit/langmeta"
	"github.com/minios-linux/xckit/lockfile"
	"github.com/minios-linux/xckit/merge"
	"github.com/minios-linux/xckit/settings"
	"github.com/minios-linux/xckit/translate"
	"github.com/minios-linux/xckit/xcstrings"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir     string
	catalogFlag string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "xckit",
		Short: "AI translation kit for Xcode String Catalogs",
		Long: `xckit — AI translation kit for Xcode String Catalogs (.xcstrings).

Reads a String Catalog, translates missing or selected strings through an
AI provider in rate-limited parallel chunks, and merges the results back
without disturbing anything Xcode wrote: key order, per-entry metadata, and
unknown fields survive byte for byte.

Commands:
  status         Show catalog info and per-language translation statistics
  languages      List the base and localization languages of a catalog
  keys           List catalog keys in document order
  base-strings   List keys with their base-language values
  translate      Translate and print results without modifying the catalog
  apply          Translate and write results into the catalog
  apply-missing  Translate and write only strings without a translation
  apply-changed  Translate strings that are missing or whose source changed
  translate-key  Translate specific keys into one or more languages
  auth           Manage provider API keys

AI Providers:
  google         Google AI (Gemini) — API key
  groq           Groq — API key required
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flags, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "Path to the .xcstrings catalog (overrides detection)")

	root.AddCommand(
		newStatusCmd(),
		newLanguagesCmd(),
		newKeysCmd(),
		newBaseStringsCmd(),
		newTranslateCmd(),
		newApplyCmd(),
		newApplyMissingCmd(),
		newApplyChangedCmd(),
		newTranslateKeyCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("xckit version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// Catalog loading (shared by all read commands)
// ---------------------------------------------------------------------------

// loadCatalog resolves the catalog path (positional arg > --catalog flag >
// .xckit.yaml > detection) and parses it.
func loadCatalog(args []string) (*config.Project, *xcstrings.File) {
	proj, err := config.Detect(rootDir)
	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	if catalogFlag != "" {
		proj.CatalogPath = catalogFlag
	}
	if len(args) > 0 {
		proj.CatalogPath = args[0]
	}

	if proj.CatalogPath == "" {
		logError("%s", i18n.T("No catalog found. Use --catalog or create .xckit.yaml"))
		os.Exit(1)
	}

	cat, err := xcstrings.ParseFile(proj.CatalogPath)
	if err != nil {
		logError("Reading %s: %v", proj.CatalogPath, err)
		os.Exit(1)
	}

	return proj, cat
}

// ---------------------------------------------------------------------------
// status (read-only: catalog info + translation stats)
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [file]",
		Short: "Show catalog info and translation statistics",
		Long: `Show the resolved catalog and per-language translation progress.

Displays the catalog path, source language, detected languages, and for
every localization language the count of translated strings. Does not
modify any files.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			proj, cat := loadCatalog(args)
			runStatus(proj, cat)
		},
	}
}

func runStatus(proj *config.Project, cat *xcstrings.File) {
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Catalog"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintf(os.Stderr, "  %-16s %s\n", "path:", proj.CatalogPath)
	if proj.FromFile {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", "config:", config.FileName)
	}

	src := cat.SourceLanguage()
	fmt.Fprintf(os.Stderr, "  %-16s %s\n", i18n.T("Source language")+":", langCell(src, len(src)))
	fmt.Fprintf(os.Stderr, "  %-16s %d\n", "keys:", len(cat.Keys()))
	if lock, err := lockfile.Load(proj.Root); err == nil {
		if langs, _ := lock.Stats(); langs > 0 {
			fmt.Fprintf(os.Stderr, "  %-16s %s\n", "lock:", lock.Summary())
		}
	}

	langs := filterOutLang(cat.Languages(), src)
	if len(langs) == 0 {
		fmt.Fprintln(os.Stderr)
		logInfo("Catalog has no localizations yet. Try: xckit apply --lang ru")
		return
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "%s%s%s\n", colorBlue, i18n.T("Languages"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))

	width := langColumnWidth(langs)
	for _, lang := range langs {
		translated, total := cat.Stats(lang)
		percent := 0
		if total > 0 {
			percent = translated * 100 / total
		}
		color := colorRed
		switch {
		case percent == 100:
			color = colorGreen
		case percent >= 50:
			color = colorYellow
		}
		fmt.Fprintf(os.Stderr, "  %s  %s%3d%%%s  (%d/%d)\n",
			langCell(lang, width), color, percent, colorReset, translated, total)
	}
	fmt.Fprintln(os.Stderr)
}

// ---------------------------------------------------------------------------
// languages / keys / base-strings (read-only listings)
// ---------------------------------------------------------------------------

func newLanguagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages [file]",
		Short: "List the base and localization languages of a catalog",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, cat := loadCatalog(args)
			src := cat.SourceLanguage()
			langs := cat.Languages()
			width := langColumnWidth(append([]string{src}, langs...))

			fmt.Printf("%s  (%s)\n", langCell(src, width), "base")
			for _, lang := range filterOutLang(langs, src) {
				fmt.Println(langCell(lang, width))
			}
		},
	}
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [file]",
		Short: "List catalog keys in document order",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, cat := loadCatalog(args)
			for _, key := range cat.Keys() {
				fmt.Println(key)
			}
		},
	}
}

func newBaseStringsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "base-strings [file]",
		Short: "List keys with their base-language values",
		Long: `List every key with its base-language value in document order.

Keys without an explicit base localization fall back to the key itself,
which is how Xcode treats them.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			_, cat := loadCatalog(args)
			for _, bs := range cat.BaseStrings() {
				fmt.Printf("%s\t%s\n", bs.Key, bs.Value)
			}
		},
	}
}

// ---------------------------------------------------------------------------
// Engine flags (shared by translate / apply / apply-missing / translate-key)
// ---------------------------------------------------------------------------

type engineArgs struct {
	langs string
	keys  []string

	provider string
	apiKey   string
	model    string
	baseURL  string

	chunkSize      int
	maxConcurrent  int
	rateLimitDelay time.Duration
	noRateLimit    bool
	temperature    float64
	prompt         string

	timeout time.Duration
	proxy   string
	verbose bool
	dryRun  bool
}

func addEngineFlags(cmd *cobra.Command, a *engineArgs) {
	// Provider selection
	cmd.Flags().StringVar(&a.provider, "provider", "", "AI provider: google, groq, ollama, custom-openai")
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (required)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or XCKIT_API_KEY env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Translation behavior
	cmd.Flags().IntVar(&a.chunkSize, "chunk-size", 0, "Strings per API request (default 50)")
	cmd.Flags().IntVar(&a.maxConcurrent, "max-concurrent", 0, "Maximum concurrent chunk requests (default 2)")
	cmd.Flags().DurationVar(&a.rateLimitDelay, "rate-limit-delay", 0, "Minimum spacing between chunk request starts (default 1s)")
	cmd.Flags().BoolVar(&a.noRateLimit, "no-rate-limit", false, "Disable request start spacing")
	cmd.Flags().Float64Var(&a.temperature, "temperature", 0, "Model temperature 0.0-1.0 (default 0.3)")
	cmd.Flags().StringVar(&a.prompt, "prompt", "", "Custom system prompt (supports {{sourceLang}}/{{targetLang}})")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")
	cmd.Flags().BoolVar(&a.dryRun, "dry-run", false, "Translate and report without modifying the catalog")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (0 = provider default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")

	// Provider completion
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"google\tGoogle AI (Gemini) — API key required",
			"groq\tGroq — API key required",
			"ollama\tOllama local server",
			"custom-openai\tCustom OpenAI-compatible endpoint",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	// Model completion (provider-aware)
	_ = cmd.RegisterFlagCompletionFunc("model", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		p, _ := cmd.Flags().GetString("provider")
		switch p {
		case "google":
			return []string{"gemini-2.5-flash", "gemini-2.0-flash-exp", "gemini-1.5-pro"}, cobra.ShellCompDirectiveNoFileComp
		case "groq":
			return []string{"llama-3.3-70b-versatile", "mixtral-8x7b-32768"}, cobra.ShellCompDirectiveNoFileComp
		case "ollama":
			return []string{"llama3.2", "qwen2.5", "mistral", "phi3"}, cobra.ShellCompDirectiveNoFileComp
		default:
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
	})
}

// resolveEngine resolves provider configuration and target languages, exiting
// with a helpful message when required pieces are missing.
func resolveEngine(proj *config.Project, a engineArgs) (translate.Provider, []string) {
	providerID := a.provider
	if providerID == "" {
		providerID = proj.Provider
	}
	if providerID == "" {
		logError("No provider specified. Use --provider to choose an AI translation service.\n\n" +
			"Available providers:\n" +
			"  Cloud APIs (require API key):\n" +
			"    google         Google AI (Gemini)\n" +
			"    groq           Groq\n\n" +
			"  Local services (no API key):\n" +
			"    ollama         Ollama local server\n\n" +
			"  Custom:\n" +
			"    custom-openai  Custom OpenAI-compatible endpoint\n\n" +
			"Example: xckit apply --lang ru --provider google --model gemini-2.5-flash")
		os.Exit(1)
	}

	key := settings.ResolveAPIKey(providerID, a.apiKey)

	model := a.model
	if model == "" {
		model = proj.Translation.Model
	}

	prov := resolveProvider(providerID, a.baseURL, key, model, a.proxy, a.timeout)
	if err := validateProvider(prov, key); err != nil {
		logError("%v", err)
		os.Exit(1)
	}

	var langs []string
	if a.langs != "" {
		langs = config.ParseLangList(a.langs)
	} else {
		langs = proj.Languages
	}
	if len(langs) == 0 {
		logError("No target languages. Use --lang (comma-separated) or declare languages in %s", config.FileName)
		os.Exit(1)
	}

	return prov, langs
}

// engineOptions assembles translate.Options for one target language.
func engineOptions(proj *config.Project, a engineArgs, prov translate.Provider, lang string, sel translate.Selection) translate.Options {
	chunkSize := a.chunkSize
	if chunkSize == 0 {
		chunkSize = proj.Translation.ChunkSize
	}
	maxConcurrent := a.maxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = proj.Translation.MaxConcurrentChunks
	}
	rateDelay := a.rateLimitDelay
	if rateDelay == 0 {
		rateDelay = proj.Translation.RateLimitDelay
	}
	temperature := a.temperature
	if temperature == 0 {
		temperature = proj.Translation.Temperature
	}

	// Load user-customized prompts; the engine falls back to its built-in
	// prompt when none are configured.
	if a.prompt == "" {
		if _, err := translate.LoadPromptsFromDefaultLocations(); err != nil && a.verbose {
			logWarning("Loading prompts: %v", err)
		}
	}

	return translate.Options{
		Provider:            prov,
		Language:            lang,
		Selection:           sel,
		ChunkSize:           chunkSize,
		MaxConcurrentChunks: maxConcurrent,
		RateLimitDelay:      rateDelay,
		NoRateLimit:         a.noRateLimit,
		Timeout:             a.timeout,
		Temperature:         temperature,
		SystemPrompt:        a.prompt,
		Verbose:             a.verbose,
		OnLog: func(format string, args ...any) {
			if a.verbose {
				logInfo(format, args...)
			}
		},
		OnError: func(format string, args ...any) {
			logError(format, args...)
		},
	}
}

// signalContext returns a context cancelled by Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		logWarning("Interrupted, letting in-flight requests finish...")
		cancel()
	}()

	return ctx, cancel
}

// runEngine translates one language with a progress bar and returns the job.
func runEngine(ctx context.Context, cat *xcstrings.File, opts translate.Options) (*translate.Job, error) {
	meta := langmeta.Resolve(opts.Language)
	desc := fmt.Sprintf(i18n.T("Translating %s"), meta.Name)
	if meta.Flag != "" {
		desc = meta.Flag + " " + desc
	}

	var bar *progressbar.ProgressBar
	opts.OnProgress = func(lang string, done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(desc),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(done)
	}

	job, err := translate.Run(ctx, cat, opts)
	if bar != nil {
		_ = bar.Finish()
	}
	return job, err
}

// reportJob logs the failed keys of a resolved job.
func reportJob(job *translate.Job) {
	failed := job.FailedKeys()
	if len(failed) == 0 {
		return
	}

	logWarning("%s:", fmt.Sprintf(i18n.N("%d key failed", "%d keys failed", len(failed)), len(failed)))
	for _, key := range sortedKeys(failed) {
		fmt.Fprintf(os.Stderr, "  %s%s%s: %s\n", colorYellow, key, colorReset, failed[key])
	}
}

// ---------------------------------------------------------------------------
// translate (preview: run the engine, print results, mutate nothing)
// ---------------------------------------------------------------------------

func newTranslateCmd() *cobra.Command {
	var a engineArgs
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate and print results without modifying the catalog",
		Long: `Translate catalog strings and print the results as key → text pairs.

The catalog file is never written; use 'apply' or 'apply-missing' to merge
results back.

Examples:
  # Preview Russian translations of everything
  xckit translate --lang ru --provider google --model gemini-2.5-flash

  # Preview only untranslated strings
  xckit translate --lang ru --missing --provider google --model gemini-2.5-flash

  # Preview selected keys
  xckit translate --lang de --key "Save" --key "Cancel" --provider groq --model llama-3.3-70b-versatile`,
		Run: func(cmd *cobra.Command, args []string) {
			proj, cat := loadCatalog(nil)
			prov, langs := resolveEngine(proj, a)
			if len(langs) != 1 {
				logError("translate previews exactly one language, got %d. Use --lang LANG", len(langs))
				os.Exit(1)
			}

			sel := translate.SelectAll()
			if missingOnly {
				sel = translate.SelectMissing()
			}
			if len(a.keys) > 0 {
				sel = translate.SelectKeys(a.keys...)
			}

			ctx, cancel := signalContext()
			defer cancel()

			job, err := runEngine(ctx, cat, engineOptions(proj, a, prov, langs[0], sel))
			if err != nil {
				logError("%v", err)
				os.Exit(1)
			}

			results := job.Results()
			if job.UnitCount() == 0 {
				logInfo("%s", i18n.T("No entries to translate"))
				return
			}
			for _, key := range sortedKeys(results) {
				fmt.Printf("%s\t%s\n", key, results[key])
			}
			reportJob(job)
			logInfo("%s", i18n.T("Preview only, catalog not modified"))
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Target language (required)")
	cmd.Flags().BoolVar(&missingOnly, "missing", false, "Only strings without a translation")
	cmd.Flags().StringArrayVar(&a.keys, "key", nil, "Translate only this key (repeatable)")
	addEngineFlags(cmd, &a)

	return cmd
}

// ---------------------------------------------------------------------------
// apply / apply-missing (translate + merge + write)
// ---------------------------------------------------------------------------

func newApplyCmd() *cobra.Command {
	var a engineArgs

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Translate and write results into the catalog",
		Long: `Translate every key and merge the results into the catalog.

A timestamped backup of the catalog is written next to it before saving.
Already-translated strings are re-translated; use 'apply-missing' to fill
gaps only.

Examples:
  xckit apply --lang ru --provider google --model gemini-2.5-flash
  xckit apply --lang ru,de,fr --provider groq --model llama-3.3-70b-versatile`,
		Run: func(cmd *cobra.Command, args []string) {
			runApply(a, translate.SelectAll(), false)
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Target languages (comma-separated)")
	addEngineFlags(cmd, &a)

	return cmd
}

func newApplyMissingCmd() *cobra.Command {
	var a engineArgs

	cmd := &cobra.Command{
		Use:   "apply-missing",
		Short: "Translate and write only strings without a translation",
		Long: `Translate only the keys that lack a translated entry for the target
language and merge the results into the catalog.

Safe to re-run: strings already in the "translated" state are never sent
to the provider or modified.

Examples:
  xckit apply-missing --lang ru --provider google --model gemini-2.5-flash`,
		Run: func(cmd *cobra.Command, args []string) {
			runApply(a, translate.SelectMissing(), false)
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Target languages (comma-separated)")
	addEngineFlags(cmd, &a)

	return cmd
}

func newApplyChangedCmd() *cobra.Command {
	var a engineArgs

	cmd := &cobra.Command{
		Use:   "apply-changed",
		Short: "Translate strings that are missing or whose source text changed",
		Long: `Translate the keys that lack a translation plus the keys whose source
text changed since the last run, then merge the results into the catalog.

Source checksums are tracked per language in xckit.lock next to the
project configuration. Without a lock file every translated key counts as
changed; the first run rebuilds it.

Examples:
  xckit apply-changed --lang ru --provider google --model gemini-2.5-flash`,
		Run: func(cmd *cobra.Command, args []string) {
			runApply(a, translate.Selection{}, true)
		},
	}

	cmd.Flags().StringVar(&a.langs, "lang", "", "Target languages (comma-separated)")
	addEngineFlags(cmd, &a)

	return cmd
}

func runApply(a engineArgs, sel translate.Selection, changedOnly bool) {
	proj, cat := loadCatalog(nil)
	prov, langs := resolveEngine(proj, a)

	lock, err := lockfile.Load(proj.Root)
	if err != nil {
		logWarning("%v", err)
		lock = nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	applied := 0
	failed := 0
	appliedKeys := make(map[string][]string)
	for _, lang := range langs {
		langSel := sel
		if changedOnly {
			keys := staleKeys(cat, lock, lang)
			if len(keys) == 0 {
				continue
			}
			langSel = translate.SelectKeys(keys...)
		}

		job, err := runEngine(ctx, cat, engineOptions(proj, a, prov, lang, langSel))
		if err != nil {
			logError("%s: %v", lang, err)
			os.Exit(1)
		}

		if a.dryRun {
			applied += len(job.Results())
			failed += len(job.FailedKeys())
			reportJob(job)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		summary, err := merge.Apply(cat, job)
		if err != nil {
			logError("%s: %v", lang, err)
			os.Exit(1)
		}
		applied += summary.Applied
		failed += len(summary.FailedKeys)
		for key := range job.Results() {
			appliedKeys[lang] = append(appliedKeys[lang], key)
		}
		reportJob(job)

		if ctx.Err() != nil {
			break
		}
	}

	if applied == 0 {
		if failed > 0 {
			logError("%s", fmt.Sprintf(i18n.N("%d key failed", "%d keys failed", failed), failed))
			os.Exit(1)
		}
		logInfo("%s", i18n.T("No entries to translate"))
		return
	}

	if a.dryRun {
		logSuccess("%s", fmt.Sprintf(i18n.N("Translated %d string", "Translated %d strings", applied), applied))
		logInfo("%s", i18n.T("Preview only, catalog not modified"))
		if failed > 0 {
			logWarning("%s", fmt.Sprintf(i18n.N("%d key failed", "%d keys failed", failed), failed))
			os.Exit(1)
		}
		return
	}

	saveCatalog(cat, proj.CatalogPath)
	recordInLock(lock, cat, appliedKeys)
	logSuccess("%s", fmt.Sprintf(i18n.N("Applied %d translation", "Applied %d translations", applied), applied))
	if failed > 0 {
		logWarning("%s", fmt.Sprintf(i18n.N("%d key failed", "%d keys failed", failed), failed))
		os.Exit(1)
	}
	if ctx.Err() != nil {
		logWarning("Interrupted, partial progress saved")
		os.Exit(1)
	}
}

// staleKeys returns the keys needing (re)translation into lang: keys
// without a translated entry plus keys whose source text changed since the
// lock file last recorded them. Keys come back in catalog order.
func staleKeys(cat *xcstrings.File, lock *lockfile.LockFile, lang string) []string {
	var keys []string
	for _, bs := range cat.BaseStrings() {
		if u, ok := cat.GetTranslation(bs.Key, lang); !ok || u.State != xcstrings.StateTranslated {
			keys = append(keys, bs.Key)
			continue
		}
		if lock == nil || lock.IsChanged(lang, bs.Key, lockfile.EntryContent(bs.Key, bs.Value)) {
			keys = append(keys, bs.Key)
		}
	}
	return keys
}

// recordInLock stores source checksums for the keys just applied and saves
// the lock file. Lock failures never fail the run; the catalog is already
// written at this point.
func recordInLock(lock *lockfile.LockFile, cat *xcstrings.File, appliedKeys map[string][]string) {
	if lock == nil || len(appliedKeys) == 0 {
		return
	}

	base := make(map[string]string)
	for _, bs := range cat.BaseStrings() {
		base[bs.Key] = bs.Value
	}

	allKeys := cat.Keys()
	for lang, keys := range appliedKeys {
		entries := make(map[string]string, len(keys))
		for _, key := range keys {
			entries[key] = lockfile.EntryContent(key, base[key])
		}
		lock.UpdateBatch(lang, entries)
		lock.Clean(lang, allKeys)
	}

	if err := lock.Save(); err != nil {
		logWarning("%v", err)
	}
}

// saveCatalog backs up and writes the catalog, exiting on failure.
func saveCatalog(cat *xcstrings.File, path string) {
	backup, err := xcstrings.Backup(path)
	if err != nil {
		logError("Backing up %s: %v", path, err)
		os.Exit(1)
	}
	if backup != "" {
		logInfo(i18n.T("Backup created: %s"), backup)
	}

	if err := cat.WriteFile(path); err != nil {
		logError("Writing %s: %v", path, err)
		os.Exit(1)
	}
	logSuccess(i18n.T("Saved %s"), path)
}

// ---------------------------------------------------------------------------
// translate-key (explicit key set, one or more target languages)
// ---------------------------------------------------------------------------

func newTranslateKeyCmd() *cobra.Command {
	var a engineArgs

	cmd := &cobra.Command{
		Use:   "translate-key",
		Short: "Translate specific keys into one or more languages",
		Long: `Translate an explicit set of keys and merge the results.

Unknown keys abort before any provider call. Each target language is
translated as its own job; a failure in one language does not prevent the
others from being applied.

Examples:
  xckit translate-key --key "Save" --lang ru --provider google --model gemini-2.5-flash
  xckit translate-key --key "Save" --key "Cancel" --lang ru,de --provider groq --model llama-3.3-70b-versatile`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(a.keys) == 0 {
				logError("At least one --key is required")
				os.Exit(1)
			}
			runApply(a, translate.SelectKeys(a.keys...), false)
		},
	}

	cmd.Flags().StringArrayVar(&a.keys, "key", nil, "Key to translate (repeatable, required)")
	cmd.Flags().StringVar(&a.langs, "lang", "", "Target languages (comma-separated)")
	addEngineFlags(cmd, &a)

	return cmd
}

// ---------------------------------------------------------------------------
// auth (API key management)
// ---------------------------------------------------------------------------

// allProviders is the ordered list of providers for the interactive menu.
var allProviders = []struct {
	id   string
	name string
	desc string
	auth string // "api-key", "none"
}{
	{"google", "Google AI Studio", "Gemini API key, free tier available", "api-key"},
	{"groq", "Groq Cloud", "fast inference, free tier available", "api-key"},
	{"custom-openai", "Custom OpenAI", "any OpenAI-compatible endpoint", "api-key"},
	{"ollama", "Ollama", "local server, no auth needed", "none"},
}

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider API keys",
		Long: `Manage API keys for AI providers.

API key providers (paste your key):
  google        Google AI Studio (Gemini API key)
  groq          Groq Cloud (free tier available)
  custom-openai Custom OpenAI-compatible endpoint

No auth required:
  ollama        Local Ollama server

Examples:
  xckit auth login                         Interactive provider selection
  xckit auth login --provider google       Store Google AI API key
  xckit auth logout --provider google      Remove Google API key
  xckit auth logout                        Remove all credentials
  xckit auth list                          Show all stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key for a provider",
		Long: `Store an API key for an AI provider.

If --provider is not specified, you will be prompted to choose.`,
		Run: func(cmd *cobra.Command, args []string) {
			// If no provider specified, prompt user
			if provider == "" {
				fmt.Fprintln(os.Stderr, "")
				fmt.Fprintf(os.Stderr, "%sSelect provider to authenticate:%s\n\n", colorBlue, colorReset)
				displayIdx := 0
				for _, p := range allProviders {
					if p.auth == "none" {
						continue // ollama needs no auth
					}
					displayIdx++
					fmt.Fprintf(os.Stderr, "  %d. %s%-13s%s %s\n",
						displayIdx, colorYellow, p.id, colorReset, p.desc)
				}
				fmt.Fprintln(os.Stderr)
				fmt.Fprintf(os.Stderr, "Enter choice (number or name): ")

				scanner := bufio.NewScanner(os.Stdin)
				if !scanner.Scan() {
					logError("No input received")
					os.Exit(1)
				}
				choice := strings.TrimSpace(scanner.Text())

				found := false
				displayIdx = 0
				for _, p := range allProviders {
					if p.auth == "none" {
						continue
					}
					displayIdx++
					if choice == fmt.Sprintf("%d", displayIdx) || choice == p.id {
						provider = p.id
						found = true
						break
					}
				}
				if !found {
					logError("Invalid choice. Use: xckit auth login --provider PROVIDER")
					os.Exit(1)
				}
			}

			switch provider {
			case "google", "groq":
				authLoginAPIKey(provider)
			case "custom-openai":
				authLoginCustomOpenAI()
			default:
				logError("Unknown provider '%s'. Run 'xckit auth login' for options.", provider)
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to authenticate")
	_ = cmd.RegisterFlagCompletionFunc("provider", authProviderCompletion)

	return cmd
}

func authProviderCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	completions := make([]string, 0, len(allProviders))
	for _, p := range allProviders {
		if p.auth == "none" {
			continue
		}
		completions = append(completions, fmt.Sprintf("%s\t%s", p.id, p.name))
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func authLoginAPIKey(providerID string) {
	providerInfo := map[string]struct {
		name    string
		helpURL string
		example string
	}{
		"google": {
			name:    "Google AI Studio",
			helpURL: "https://aistudio.google.com/apikey",
			example: "xckit apply --lang ru --provider google --model gemini-2.5-flash",
		},
		"groq": {
			name:    "Groq Cloud",
			helpURL: "https://console.groq.com/keys",
			example: "xckit apply --lang ru --provider groq --model llama-3.3-70b-versatile",
		},
	}

	info := providerInfo[providerID]

	fmt.Fprintf(os.Stderr, "\n%s%s — API Key Setup%s\n", colorBlue, info.name, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	if info.helpURL != "" {
		fmt.Fprintf(os.Stderr, "  Get your API key from: %s%s%s\n\n", colorGreen, info.helpURL, colorReset)
	}

	// Check if already configured
	existing := settings.GetAPIKey(providerID)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Enter API key: ")
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		logError("No input received")
		os.Exit(1)
	}
	key := strings.TrimSpace(scanner.Text())

	if key == "" {
		if existing != "" {
			logInfo("Keeping existing key")
			return
		}
		logError("No API key provided")
		os.Exit(1)
	}

	if err := settings.SetAPIKey(providerID, key); err != nil {
		logError("Failed to save API key: %v", err)
		os.Exit(1)
	}

	logSuccess(i18n.T("API key saved for %s"), info.name)
	fmt.Fprintf(os.Stderr, "\n  You can now use: %s\n\n", info.example)
}

func authLoginCustomOpenAI() {
	fmt.Fprintf(os.Stderr, "\n%sCustom OpenAI-Compatible Endpoint%s\n", colorBlue, colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	scanner := bufio.NewScanner(os.Stdin)

	existingURL := settings.GetBaseURL("custom-openai")
	if existingURL != "" {
		fmt.Fprintf(os.Stderr, "  Current endpoint: %s%s%s\n", colorYellow, existingURL, colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new endpoint URL, or press Enter to keep: ")
	} else {
		fmt.Fprintf(os.Stderr, "  Endpoint URL (e.g. https://api.example.com/v1): ")
	}
	if !scanner.Scan() {
		logError("No input received")
		os.Exit(1)
	}
	baseURL := strings.TrimSpace(scanner.Text())
	if baseURL == "" {
		baseURL = existingURL
	}
	if baseURL == "" {
		logError("No endpoint URL provided")
		os.Exit(1)
	}

	existing := settings.GetAPIKey("custom-openai")
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  Enter new key to replace, press Enter to keep, or '-' for none: ")
	} else {
		fmt.Fprintf(os.Stderr, "  API key (press Enter if not required): ")
	}
	if !scanner.Scan() {
		logError("No input received")
		os.Exit(1)
	}
	key := strings.TrimSpace(scanner.Text())
	switch key {
	case "":
		key = existing
	case "-":
		key = ""
	}

	if err := settings.SetAPIKeyWithBaseURL("custom-openai", key, baseURL); err != nil {
		logError("Failed to save credentials: %v", err)
		os.Exit(1)
	}

	logSuccess(i18n.T("API key saved for %s"), "custom-openai")
	fmt.Fprintf(os.Stderr, "\n  You can now use: xckit apply --lang ru --provider custom-openai --model MODEL\n\n")
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, credentials for ALL providers are removed.

Examples:
  xckit auth logout                        Remove all credentials
  xckit auth logout --provider google      Remove only Google API key`,
		Run: func(cmd *cobra.Command, args []string) {
			if provider != "" {
				if err := settings.Remove(provider); err != nil {
					logError("Failed to remove %s credentials: %v", provider, err)
					os.Exit(1)
				}
				logSuccess(i18n.T("Credentials removed for %s"), provider)
				return
			}

			if err := settings.RemoveAll(); err != nil {
				logError("Failed to remove credentials: %v", err)
				os.Exit(1)
			}
			logSuccess("All stored credentials removed")
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", authProviderCompletion)

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials and status",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stderr, "\n%sStored Credentials%s\n", colorBlue, colorReset)
			fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
			fmt.Fprintf(os.Stderr, "  file: %s\n\n", settings.FilePath())

			store := settings.Load()
			if len(store) == 0 {
				fmt.Fprintf(os.Stderr, "  %s\n", i18n.T("No stored credentials"))
			}
			for _, p := range allProviders {
				entry := store[p.id]
				switch {
				case entry != nil && entry.Key != "":
					status := fmt.Sprintf("%sconfigured%s (key: %s)", colorGreen, colorReset, settings.MaskKey(entry.Key))
					if entry.BaseURL != "" {
						status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
					}
					fmt.Fprintf(os.Stderr, "  %-14s %s\n", p.id, status)
				case entry != nil && entry.BaseURL != "":
					// custom-openai may have just a URL, no key
					fmt.Fprintf(os.Stderr, "  %-14s %sconfigured%s (no key)\n  %14s endpoint: %s\n",
						p.id, colorGreen, colorReset, "", entry.BaseURL)
				case p.auth == "none":
					fmt.Fprintf(os.Stderr, "  %-14s no auth needed\n", p.id)
				default:
					fmt.Fprintf(os.Stderr, "  %-14s %snot configured%s\n", p.id, colorRed, colorReset)
				}
			}

			// Environment variables
			fmt.Fprintf(os.Stderr, "\n  %sEnvironment Variables%s\n", colorYellow, colorReset)
			envKey := os.Getenv("XCKIT_API_KEY")
			if envKey != "" {
				fmt.Fprintf(os.Stderr, "  XCKIT_API_KEY: %s%s%s (overrides stored keys)\n", colorGreen, settings.MaskKey(envKey), colorReset)
			} else {
				fmt.Fprintf(os.Stderr, "  XCKIT_API_KEY: %snot set%s\n", colorRed, colorReset)
			}
			fmt.Fprintln(os.Stderr)
		},
	}
}

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

func resolveProvider(name, baseURL, apiKey, model, proxy string, timeout time.Duration) translate.Provider {
	defaults := translate.DefaultProviders()

	var prov translate.Provider

	if p, ok := defaults[strings.ToLower(name)]; ok {
		prov = p
	} else {
		prov = translate.Provider{
			ID:      translate.ProviderCustomOpenAI,
			Name:    name,
			BaseURL: name,
			Timeout: 60 * time.Second,
		}
	}

	if baseURL != "" {
		prov.BaseURL = baseURL
	} else if prov.ID == translate.ProviderCustomOpenAI {
		// Check credentials store for base URL
		if storedURL := settings.GetBaseURL(prov.ID); storedURL != "" {
			prov.BaseURL = storedURL
		}
	}
	if apiKey != "" {
		prov.APIKey = apiKey
	}
	if model != "" {
		prov.Model = model
	}
	if proxy != "" {
		prov.Proxy = proxy
	}
	if timeout > 0 {
		prov.Timeout = timeout
	}

	return prov
}

func validateProvider(prov translate.Provider, apiKey string) error {
	if prov.Model == "" {
		modelExamples := map[string]string{
			translate.ProviderGoogle:       "gemini-2.5-flash, gemini-2.0-flash-exp, gemini-1.5-pro",
			translate.ProviderGroq:         "llama-3.3-70b-versatile, mixtral-8x7b-32768",
			translate.ProviderOllama:       "llama3.2, qwen2.5, mistral",
			translate.ProviderCustomOpenAI: "gpt-4o, gpt-4o-mini (depends on your endpoint)",
		}

		examples := modelExamples[prov.ID]
		if examples == "" {
			examples = "check provider documentation"
		}

		return fmt.Errorf("--model is required for provider '%s'\n\n"+
			"Example models for %s:\n  %s\n\n"+
			"Usage: --provider %s --model MODEL_NAME",
			prov.ID, prov.Name, examples, prov.ID)
	}

	switch prov.ID {
	case translate.ProviderGoogle:
		if apiKey == "" {
			return fmt.Errorf(i18n.T("No API key for provider %s. Run 'xckit auth login %s' or set %s"),
				"google", "--provider google", "GOOGLE_API_KEY")
		}

	case translate.ProviderGroq:
		if apiKey == "" {
			return fmt.Errorf(i18n.T("No API key for provider %s. Run 'xckit auth login %s' or set %s"),
				"groq", "--provider groq", "GROQ_API_KEY")
		}

	case translate.ProviderCustomOpenAI:
		if prov.BaseURL == "" {
			return fmt.Errorf("provider 'custom-openai' requires an endpoint URL\n\n" +
				"Option 1: Configure via auth:\n" +
				"  xckit auth login --provider custom-openai\n\n" +
				"Option 2: Pass directly:\n" +
				"  --base-url https://api.example.com/v1")
		}

	case translate.ProviderOllama:
		client := &http.Client{Timeout: 2 * time.Second}
		ollamaURL := prov.BaseURL
		if ollamaURL == "" {
			ollamaURL = "http://localhost:11434"
		}
		resp, err := client.Get(ollamaURL + "/api/tags")
		if err != nil {
			return fmt.Errorf("provider 'ollama' requires Ollama server to be running\n\n" +
				"Start Ollama with: ollama serve\n" +
				"Install from: https://ollama.com")
		}
		resp.Body.Close()
	}

	return nil
}

// langCell renders a language code with its flag, padded to width.
func langCell(lang string, width int) string {
	meta := langmeta.Resolve(lang)
	cell := fmt.Sprintf("%-*s", width, lang)
	if meta.Flag != "" {
		cell = meta.Flag + " " + cell
	} else {
		cell = "   " + cell
	}
	if meta.Name != lang {
		cell += "  " + meta.Name
	}
	return cell
}

// langColumnWidth returns the display width needed for a language column.
func langColumnWidth(langs []string) int {
	width := 0
	for _, lang := range langs {
		if len(lang) > width {
			width = len(lang)
		}
	}
	return width
}

// filterOutLang returns langs without every occurrence of drop.
func filterOutLang(langs []string, drop string) []string {
	var out []string
	for _, l := range langs {
		if l != drop {
			out = append(out, l)
		}
	}
	return out
}

// sortedKeys returns the keys of a map in sorted order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
