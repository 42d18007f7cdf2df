package config

// SentryConfig defines settings for Sentry error monitoring. Maintenance,
// backup and dropped-entry failures are reported when DSN is set.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}
