// Package redact strips secrets from source text before it is sent to
// any model provider.
//
// Detection uses regex heuristics over common secret shapes: API keys,
// bearer tokens, JWTs, private key blocks, AWS credentials, connection
// strings with inline passwords, and provider-specific token formats.
// Files whose paths match configured glob patterns are withheld
// entirely instead of scanned.
package redact
