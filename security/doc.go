// Package security holds TLS settings for outbound connections to the
// upload and generation endpoints.
//
//	cfg := security.TLSConfig{CAFile: "/etc/scribe/ca.pem"}
//	tlsConfig, err := cfg.Build()
package security
