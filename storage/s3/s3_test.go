package s3

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/interviewscribe/security"
	"github.com/kbukum/interviewscribe/security/tlstest"
	"github.com/kbukum/interviewscribe/storage"
)

const objectBody = "0123456789abcdefghij"

// fakeS3Handler serves a single object at /recordings/interview.mp3.
func fakeS3Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recordings/interview.mp3" {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			}
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Length", fmt.Sprint(len(objectBody)))
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			var start, end int
			if _, err := fmt.Sscanf(r.Header.Get("Range"), "bytes=%d-%d", &start, &end); err != nil {
				fmt.Fprint(w, objectBody)
				return
			}
			if start >= len(objectBody) {
				w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
				return
			}
			if end >= len(objectBody) {
				end = len(objectBody) - 1
			}
			w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(objectBody)))
			w.Header().Set("Content-Length", fmt.Sprint(end-start+1))
			w.WriteHeader(http.StatusPartialContent)
			fmt.Fprint(w, objectBody[start:end+1])
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func testConfig(endpoint string) storage.Config {
	return storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "recordings",
		Endpoint:  endpoint,
		AccessKey: "test",
		SecretKey: "test",
	}
}

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	srv := httptest.NewServer(fakeS3Handler())
	t.Cleanup(srv.Close)
	s, err := Open(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStorage_Stat(t *testing.T) {
	s := newTestStorage(t)
	info, err := s.Stat(context.Background(), "interview.mp3")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size != int64(len(objectBody)) || info.ContentType != "audio/mpeg" {
		t.Errorf("info = %+v", info)
	}

	_, err = s.Stat(context.Background(), "missing.mp3")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestStorage_ReadRange(t *testing.T) {
	s := newTestStorage(t)
	tests := []struct {
		offset, length int64
		want           string
	}{
		{0, 5, "01234"},
		{10, 4, "abcd"},
		{18, 8, "ij"},
		{20, 4, ""},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("%d+%d", tc.offset, tc.length), func(t *testing.T) {
			got, err := s.ReadRange(context.Background(), "interview.mp3", tc.offset, tc.length)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestStorage_TLSEndpoint(t *testing.T) {
	certs := tlstest.Generate(t)
	srv := httptest.NewUnstartedServer(fakeS3Handler())
	srv.TLS = &tls.Config{Certificates: []tls.Certificate{certs.Leaf}}
	srv.StartTLS()
	t.Cleanup(srv.Close)
	ctx := context.Background()

	untrusted, err := Open(ctx, testConfig(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := untrusted.Stat(ctx, "interview.mp3"); err == nil {
		t.Error("expected certificate error without the CA")
	}

	cfg := testConfig(srv.URL)
	cfg.TLS = &security.TLSConfig{CAFile: certs.CAFile}
	s, err := Open(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.ReadRange(ctx, "interview.mp3", 0, 3)
	if err != nil || string(got) != "012" {
		t.Errorf("read over tls = %q, %v", got, err)
	}
}

func TestRegistered(t *testing.T) {
	srv := httptest.NewServer(fakeS3Handler())
	t.Cleanup(srv.Close)
	st, err := storage.Open(context.Background(), testConfig(srv.URL), nil)
	if err != nil {
		t.Fatal(err)
	}
	info, err := st.Stat(context.Background(), "interview.mp3")
	if err != nil || info.Size != int64(len(objectBody)) {
		t.Errorf("stat = %+v, %v", info, err)
	}
}
