// Package log builds slog loggers that mask secrets before they are written.
//
// SecureHandler wraps any slog.Handler. It masks:
//   - attributes with sensitive keys (authorization, cookie, api_key, master_key, password, token)
//   - values that look like credentials (bearer and basic auth, JWTs, private key blocks)
//   - the password in URLs carrying userinfo, such as a SOCKS or search host URL
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("index request failed", "host", host, "master_key", key) // key is masked
package log
