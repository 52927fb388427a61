package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/critic-dev/critic/internal/analysis"
	"github.com/critic-dev/critic/internal/providers"
)

// ClientFactory builds a provider client for a provider/model pair.
type ClientFactory func(provider, model string) (providers.Client, error)

// NewRunner wires a provider client, retry policy, prompt construction
// and response parsing into a Runner. Clients are built once per
// provider/model pair and reused across units.
func NewRunner(factory ClientFactory, policy providers.Policy) Runner {
	if factory == nil {
		factory = providers.New
	}

	var mu sync.Mutex
	clients := make(map[string]providers.Client)

	getClient := func(provider, model string) (providers.Client, error) {
		mu.Lock()
		defer mu.Unlock()
		key := provider + "/" + model
		if c, ok := clients[key]; ok {
			return c, nil
		}
		c, err := factory(provider, model)
		if err != nil {
			return nil, err
		}
		clients[key] = c
		return c, nil
	}

	return func(ctx context.Context, unit int, req analysis.Request) analysis.Result {
		start := time.Now()
		res := analysis.Result{Unit: unit, Label: req.Label}

		client, err := getClient(req.Provider, req.Model)
		if err != nil {
			return failed(res, err, 0, start)
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
			return client.Complete(ctx, preq)
		})
		if err != nil {
			return failed(res, err, attempts, start)
		}

		findings, code := analysis.Parse(raw, req.Categories)
		res.Status = analysis.StatusSuccess
		res.RawText = raw
		res.Findings = findings
		res.RewrittenCode = code
		res.AttemptsUsed = attempts
		res.ElapsedMs = time.Since(start).Milliseconds()

		slog.Debug("unit complete", "unit", unit, "label", req.Label,
			"findings", len(findings), "attempts", attempts, "elapsed_ms", res.ElapsedMs)
		return res
	}
}

func failed(res analysis.Result, err error, attempts int, start time.Time) analysis.Result {
	kind := providers.KindOf(err)
	if kind == "" {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = KindCancelled
		} else {
			kind = KindInternal
		}
	}
	res.Status = analysis.StatusFailed
	res.Err = &analysis.ErrorInfo{
		Kind:    kind,
		Message: err.Error(),
	}
	res.AttemptsUsed = attempts
	res.ElapsedMs = time.Since(start).Milliseconds()
	return res
}
