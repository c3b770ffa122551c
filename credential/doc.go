// Package credential resolves the provider API key used for uploads and
// generation.
//
// A Provider returns the key or an empty string when it has none. Chain
// combines providers and answers with the first non-empty key, so the
// command line can prefer an environment variable over the sealed key file:
//
//	p := credential.Chain(
//		credential.Env{Var: "GEMINI_API_KEY"},
//		&credential.SealedFile{Path: keyPath, Passphrase: pass},
//	)
//	key, err := p.Credential(ctx)
//
// The sealed key file holds the key encrypted with AES-256-GCM or
// ChaCha20-Poly1305. The cipher key is the SHA-256 digest of the passphrase.
package credential
