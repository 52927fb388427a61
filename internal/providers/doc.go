// Package providers implements the Client interface for each supported LLM
// backend.
//
// Supported backends: OpenAI (chat completions) and Anthropic (messages).
// Both expose synchronous completion, streaming completion, and model
// listing behind one interface; callers select a backend by name through
// [New] and never branch on provider identity afterwards.
//
// Every backend failure is normalized into a *Error carrying one of the
// fixed Kind values, which partitions errors into retryable (rate limit,
// network) and non-retryable (auth, unknown model, malformed payload).
// [ExecuteWithRetry] layers exponential back-off and per-attempt timeouts
// over any call using that partition.
//
// HTTP clients are injected via a transport field so that tests can
// redirect calls to local httptest servers without making live API
// requests.
package providers
