package credential

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kbukum/interviewscribe/errors"
)

// Algorithm selects the AEAD used for the sealed key file.
type Algorithm string

const (
	// AlgorithmAESGCM is AES-256-GCM (default).
	AlgorithmAESGCM Algorithm = "aes-256-gcm"

	// AlgorithmChaCha20 is ChaCha20-Poly1305, fast on CPUs without AES-NI.
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// ParseAlgorithm maps a config value to an Algorithm. Empty selects AES-256-GCM.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(strings.TrimSpace(s))) {
	case "", AlgorithmAESGCM:
		return AlgorithmAESGCM, nil
	case AlgorithmChaCha20:
		return AlgorithmChaCha20, nil
	default:
		return "", errors.InvalidInput("algorithm", fmt.Sprintf("unsupported algorithm %q", s))
	}
}

// sealedEnvelope is the on-disk layout. Data is base64(nonce || ciphertext).
type sealedEnvelope struct {
	Algorithm Algorithm `json:"algorithm"`
	Data      string    `json:"data"`
}

// SealedFile stores the key encrypted on disk.
type SealedFile struct {
	Path       string
	Passphrase string
	// Algorithm is used by Store. Credential reads it from the file.
	Algorithm Algorithm
}

// Describe implements Describer.
func (s *SealedFile) Describe() string { return "sealed file " + s.Path }

// Credential opens the key file. A missing file yields an empty key.
func (s *SealedFile) Credential(context.Context) (string, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read key file: %w", err)
	}
	if s.Passphrase == "" {
		return "", errors.MissingField("passphrase")
	}
	var env sealedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", fmt.Errorf("decode key file: %w", err)
	}
	aead, err := newAEAD(env.Algorithm, s.Passphrase)
	if err != nil {
		return "", err
	}
	plain, err := open(aead, env.Data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(plain), nil
}

// Store seals secret into the key file, replacing any previous content.
// The file is written with owner-only permissions.
func (s *SealedFile) Store(secret string) error {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return errors.MissingField("key")
	}
	if s.Passphrase == "" {
		return errors.MissingField("passphrase")
	}
	alg, err := ParseAlgorithm(string(s.Algorithm))
	if err != nil {
		return err
	}
	aead, err := newAEAD(alg, s.Passphrase)
	if err != nil {
		return err
	}
	data, err := seal(aead, secret)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(sealedEnvelope{Algorithm: alg, Data: data}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create key directory: %w", err)
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, out, fs.FileMode(0o600)); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace key file: %w", err)
	}
	return nil
}

func newAEAD(alg Algorithm, passphrase string) (cipher.AEAD, error) {
	key := sha256.Sum256([]byte(passphrase))
	switch alg {
	case AlgorithmChaCha20:
		aead, err := chacha20poly1305.New(key[:])
		if err != nil {
			return nil, fmt.Errorf("create chacha20: %w", err)
		}
		return aead, nil
	case AlgorithmAESGCM, "":
		block, err := aes.NewCipher(key[:])
		if err != nil {
			return nil, fmt.Errorf("create cipher: %w", err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return nil, fmt.Errorf("create GCM: %w", err)
		}
		return gcm, nil
	default:
		return nil, errors.InvalidInput("algorithm", fmt.Sprintf("unsupported algorithm %q", alg))
	}
}

func seal(aead cipher.AEAD, plaintext string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(aead.Seal(nonce, nonce, []byte(plaintext), nil)), nil
}

func open(aead cipher.AEAD, encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode base64: %w", err)
	}
	n := aead.NonceSize()
	if len(data) < n {
		return "", fmt.Errorf("ciphertext too short")
	}
	plain, err := aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", errors.Unauthorized("key file passphrase does not match")
	}
	return string(plain), nil
}
