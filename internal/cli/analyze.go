package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/critic-dev/critic/internal/analysis"
	"github.com/critic-dev/critic/internal/batch"
	"github.com/critic-dev/critic/internal/cache"
	"github.com/critic-dev/critic/internal/config"
	"github.com/critic-dev/critic/internal/input"
	"github.com/critic-dev/critic/internal/output"
	"github.com/critic-dev/critic/internal/providers"
	"github.com/critic-dev/critic/internal/redact"
)

var (
	flagProvider    string
	flagModel       string
	flagCategories  string
	flagFormat      string
	flagOut         string
	flagFailOn      string
	flagExtensions  string
	flagTemperature float64
	flagMaxTokens   int
	flagTimeout     int
	flagConcurrency int
	flagNoRedact    bool
	flagNoCache     bool
	flagStream      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>...",
	Short: "Analyze source files",
	Long:  "Analyze one or more files or directories, running each file through the configured LLM provider concurrently.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		runAnalyze(args, cfg)
		return nil
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&flagProvider, "provider", "", "LLM provider (openai, anthropic)")
	f.StringVar(&flagModel, "model", "", "Model name")
	f.StringVar(&flagCategories, "categories", "", "Review categories (comma-separated)")
	f.StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	f.StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	f.StringVar(&flagFailOn, "fail-on", "", "Fail on severity threshold (none, low, medium, high)")
	f.StringVar(&flagExtensions, "ext", "", "File extensions for directory walks (comma-separated)")
	f.Float64Var(&flagTemperature, "temperature", -1, "Sampling temperature [0, 1]")
	f.IntVar(&flagMaxTokens, "max-tokens", 0, "Maximum response tokens")
	f.IntVar(&flagTimeout, "timeout", 0, "Per-request timeout in seconds")
	f.IntVar(&flagConcurrency, "concurrency", 0, "Maximum files analyzed in parallel")
	f.BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	f.BoolVar(&flagNoCache, "no-cache", false, "Bypass the reply cache")
	f.BoolVar(&flagStream, "stream", false, "Stream the model reply (single file only)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagCategories != "" {
		m["categories"] = flagCategories
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagExtensions != "" {
		m["extensions"] = flagExtensions
	}
	if flagTemperature >= 0 {
		m["temperature"] = fmt.Sprintf("%g", flagTemperature)
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = fmt.Sprintf("%d", flagMaxTokens)
	}
	if flagTimeout > 0 {
		m["timeoutSeconds"] = fmt.Sprintf("%d", flagTimeout)
	}
	if flagConcurrency > 0 {
		m["concurrency"] = fmt.Sprintf("%d", flagConcurrency)
	}
	return m
}

func runAnalyze(paths []string, cfg config.Config) {
	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	units, skipped, err := input.Collect(paths, input.Options{
		Extensions: cfg.Extensions,
		MaxBytes:   cfg.MaxFileBytes,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}
	if len(units) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no reviewable files found")
		exitCode = ExitUsageError
		return
	}

	cats, err := cfg.ParsedCategories()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	reqs, err := buildRequests(units, cats, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitUsageError
		return
	}

	replyCache, err := cache.New(cfg.Cache.Enabled && !flagNoCache, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	policy := providers.Policy{
		MaxAttempts: cfg.RetryAttempts,
		BaseDelay:   time.Duration(cfg.RetryBaseMs) * time.Millisecond,
	}

	var results []analysis.Result
	var jobID string
	if flagStream && len(reqs) == 1 {
		results = []analysis.Result{streamOne(ctx, reqs[0], policy)}
		jobID = "stream"
	} else {
		results, jobID = runBatch(ctx, reqs, replyCache, policy, cfg)
		if results == nil {
			return
		}
	}

	report := &output.Report{
		JobID:       jobID,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		GeneratedAt: time.Now(),
		Results:     results,
		Skipped:     skipped,
		Summary:     batch.Summarize(results),
	}
	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	exitCode = resolveExitCode(results, cfg.FailOn)
}

func buildRequests(units []input.Unit, cats []analysis.Category, cfg config.Config) ([]analysis.Request, error) {
	params := analysis.Params{
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	reqs := make([]analysis.Request, 0, len(units))
	for _, u := range units {
		source := u.Source
		if cfg.Privacy.RedactSecrets {
			source = redact.Content(source, u.Path, cfg.Privacy.RedactPaths)
		}
		req, err := analysis.NewRequest(u.Path, source, cats, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", u.Path, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// runBatch executes the concurrent pipeline with a spinner on stderr.
// A nil result slice means the failure was already reported.
func runBatch(ctx context.Context, reqs []analysis.Request, replyCache *cache.Cache, policy providers.Policy, cfg config.Config) ([]analysis.Result, string) {
	runner := cachedRunner(batch.NewRunner(nil, policy), replyCache)

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithWriter(os.Stderr),
		spinner.WithSuffix(fmt.Sprintf(" analyzing 0/%d files", len(reqs))),
	)

	progress := func(completed, total int, res analysis.Result) {
		spin.Suffix = fmt.Sprintf(" analyzing %d/%d files", completed, total)
	}

	orch, err := batch.NewOrchestrator(runner,
		batch.WithConcurrency(cfg.Concurrency),
		batch.WithProgress(progress),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil, ""
	}

	job, err := orch.Submit(ctx, reqs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil, ""
	}

	spin.Start()
	go func() {
		<-ctx.Done()
		job.Cancel()
	}()
	_ = job.Wait(context.Background())
	spin.Stop()

	if job.Cancelled() {
		fmt.Fprintln(os.Stderr, "Interrupted; reporting completed units only")
	}
	return job.Results(), job.ID
}

// cachedRunner consults the reply cache before handing a unit to the
// underlying runner, and stores fresh replies after success.
func cachedRunner(next batch.Runner, replyCache *cache.Cache) batch.Runner {
	if !replyCache.Enabled() {
		return next
	}
	return func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		key := cache.KeyFor(req.Provider, req.Model, req.Categories, req.Source)
		if raw, ok := replyCache.Get(key); ok {
			findings, code := analysis.Parse(raw, req.Categories)
			return analysis.Result{
				Unit:          unit,
				Label:         req.Label,
				Status:        analysis.StatusSuccess,
				RawText:       raw,
				Findings:      findings,
				RewrittenCode: code,
			}
		}
		res := next(ctx, unit, req)
		if res.Status == analysis.StatusSuccess {
			if err := replyCache.Put(key, res.RawText); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: cache write failed: %v\n", err)
			}
		}
		return res
	}
}

// streamOne analyzes a single file while echoing reply fragments to
// stderr as they arrive.
func streamOne(ctx context.Context, req analysis.Request, policy providers.Policy) analysis.Result {
	start := time.Now()
	res := analysis.Result{Unit: 0, Label: req.Label}

	client, err := providers.New(req.Provider, req.Model)
	if err != nil {
		return streamFailed(res, err, 0, start)
	}

	system, user := analysis.BuildPrompt(req.Source, req.Categories)
	preq := providers.Request{
		SystemPrompt: system,
		UserPrompt:   user,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	}

	pol := policy
	pol.PerAttemptTimeout = req.Timeout
	raw, attempts, err := providers.ExecuteWithRetry(ctx, pol, func(ctx context.Context) (string, error) {
		return client.CompleteStream(ctx, preq, func(fragment string) {
			fmt.Fprint(os.Stderr, fragment)
		})
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return streamFailed(res, err, attempts, start)
	}

	findings, code := analysis.Parse(raw, req.Categories)
	res.Status = analysis.StatusSuccess
	res.RawText = raw
	res.Findings = findings
	res.RewrittenCode = code
	res.AttemptsUsed = attempts
	res.ElapsedMs = time.Since(start).Milliseconds()
	return res
}

func streamFailed(res analysis.Result, err error, attempts int, start time.Time) analysis.Result {
	res.Status = analysis.StatusFailed
	res.Err = &analysis.ErrorInfo{Kind: providers.KindOf(err), Message: err.Error()}
	res.AttemptsUsed = attempts
	res.ElapsedMs = time.Since(start).Milliseconds()
	return res
}

// resolveExitCode maps batch outcomes to the process exit code. Auth
// failures win over runtime failures, which win over the findings
// threshold.
func resolveExitCode(results []analysis.Result, failOn string) int {
	allFailed := true
	for _, res := range results {
		if res.Err != nil && res.Err.Kind == providers.KindAuth {
			return ExitAuthError
		}
		if res.Status == analysis.StatusSuccess {
			allFailed = false
		}
	}
	if allFailed {
		return ExitRuntimeError
	}

	if failOn != "" && failOn != "none" {
		threshold := analysis.SeverityRank(analysis.Severity(failOn))
		for _, res := range results {
			for _, f := range res.Findings {
				if analysis.SeverityRank(f.Severity) >= threshold {
					return ExitFindings
				}
			}
		}
	}
	return ExitSuccess
}
