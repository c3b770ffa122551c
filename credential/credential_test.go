package credential

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/interviewscribe/errors"
)

type failing struct{ err error }

func (f failing) Credential(context.Context) (string, error) { return "", f.err }

func TestStaticAndEnv(t *testing.T) {
	t.Setenv("SCRIBE_TEST_KEY", "  env-key \n")

	tests := []struct {
		name string
		p    Provider
		want string
	}{
		{"static trims", Static(" abc "), "abc"},
		{"env set", Env{Var: "SCRIBE_TEST_KEY"}, "env-key"},
		{"env unset", Env{Var: "SCRIBE_TEST_KEY_UNSET"}, ""},
		{"env without name", Env{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.Credential(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChain_FirstNonEmpty(t *testing.T) {
	c := Chain(Env{Var: "SCRIBE_TEST_KEY_UNSET"}, nil, Static("second"), Static("third"))
	key, source, err := c.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "second" || source != "static" {
		t.Errorf("got (%q, %q), want (second, static)", key, source)
	}
}

func TestChain_Empty(t *testing.T) {
	key, source, err := Chain(Static(""), Env{}).Resolve(context.Background())
	if err != nil || key != "" || source != "" {
		t.Errorf("got (%q, %q, %v), want empty", key, source, err)
	}
}

func TestChain_ErrorStops(t *testing.T) {
	boom := errors.Internal(nil)
	_, err := Chain(failing{err: boom}, Static("never")).Credential(context.Background())
	if err != boom {
		t.Errorf("got %v, want provider error", err)
	}
}

func TestSealedFile_RoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "keys", "gemini.key")
			s := &SealedFile{Path: path, Passphrase: "correct horse", Algorithm: alg}
			if err := s.Store(" secret-api-key\n"); err != nil {
				t.Fatalf("Store: %v", err)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("stat: %v", err)
			}
			if perm := info.Mode().Perm(); perm != 0o600 {
				t.Errorf("mode = %o, want 600", perm)
			}
			raw, _ := os.ReadFile(path)
			if strings.Contains(string(raw), "secret-api-key") {
				t.Fatal("key file contains the plaintext key")
			}
			if !strings.Contains(string(raw), string(alg)) {
				t.Errorf("key file does not record algorithm %s", alg)
			}

			// The reader takes the algorithm from the file.
			reader := &SealedFile{Path: path, Passphrase: "correct horse"}
			got, err := reader.Credential(context.Background())
			if err != nil {
				t.Fatalf("Credential: %v", err)
			}
			if got != "secret-api-key" {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestSealedFile_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gemini.key")
	if err := (&SealedFile{Path: path, Passphrase: "one"}).Store("k"); err != nil {
		t.Fatalf("Store: %v", err)
	}
	_, err := (&SealedFile{Path: path, Passphrase: "two"}).Credential(context.Background())
	if !errors.HasCode(err, errors.ErrCodeUnauthorized) {
		t.Errorf("got %v, want UNAUTHORIZED", err)
	}
}

func TestSealedFile_Missing(t *testing.T) {
	s := &SealedFile{Path: filepath.Join(t.TempDir(), "absent.key"), Passphrase: "p"}
	got, err := s.Credential(context.Background())
	if err != nil || got != "" {
		t.Errorf("got (%q, %v), want empty and nil", got, err)
	}
}

func TestSealedFile_StoreValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		s    *SealedFile
		key  string
	}{
		{"blank key", &SealedFile{Path: filepath.Join(dir, "a"), Passphrase: "p"}, "  "},
		{"no passphrase", &SealedFile{Path: filepath.Join(dir, "b")}, "k"},
		{"bad algorithm", &SealedFile{Path: filepath.Join(dir, "c"), Passphrase: "p", Algorithm: "rot13"}, "k"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Store(tt.key); err == nil {
				t.Fatal("expected error")
			}
			if _, err := os.Stat(tt.s.Path); !os.IsNotExist(err) {
				t.Error("key file should not be written")
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	tests := map[string]Algorithm{
		"":                  AlgorithmAESGCM,
		"AES-256-GCM":       AlgorithmAESGCM,
		"chacha20-poly1305": AlgorithmChaCha20,
	}
	for in, want := range tests {
		got, err := ParseAlgorithm(in)
		if err != nil || got != want {
			t.Errorf("ParseAlgorithm(%q) = (%s, %v), want %s", in, got, err, want)
		}
	}
	if _, err := ParseAlgorithm("des"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "***"},
		{"short-key", "***"},
		{"AIzaSyExampleKey1234", "AIza***1234"},
		{"  AIzaSyExampleKey1234\n", "AIza***1234"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
