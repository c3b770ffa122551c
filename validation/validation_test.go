package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/interviewscribe/errors"
)

type initiate struct {
	Name     string `json:"name" validate:"required"`
	Size     int64  `json:"size" validate:"required,gt=0"`
	MimeType string `json:"mimeType" validate:"required,mimetype"`
}

type fileInfo struct {
	Name string `json:"name" validate:"required"`
}

type project struct {
	Status   string   `json:"status" validate:"oneof=idle uploading processing"`
	FileInfo fileInfo `json:"fileInfo"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		wantCode errors.ErrorCode
		wantText string
	}{
		{"valid", initiate{Name: "a.mp3", Size: 10, MimeType: "audio/mpeg"}, "", ""},
		{"missing", initiate{Size: 10, MimeType: "audio/mpeg"}, errors.ErrCodeMissingField, "name: is required"},
		{"bad mime", initiate{Name: "a", Size: 1, MimeType: "mp3"}, errors.ErrCodeInvalidInput, "mimeType"},
		{"mime with params", initiate{Name: "a", Size: 1, MimeType: "audio/webm;codecs=opus"}, "", ""},
		{"negative size", initiate{Name: "a", Size: -1, MimeType: "audio/wav"}, errors.ErrCodeInvalidInput, "size: must be greater than 0"},
		{"nested", project{Status: "idle"}, errors.ErrCodeMissingField, "fileInfo.name"},
		{"oneof", project{Status: "done", FileInfo: fileInfo{Name: "x"}}, errors.ErrCodeInvalidInput, "must be one of"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.input)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tc.wantCode {
				t.Errorf("code = %s, want %s", appErr.Code, tc.wantCode)
			}
			if !strings.Contains(appErr.Message, tc.wantText) {
				t.Errorf("message %q does not contain %q", appErr.Message, tc.wantText)
			}
			if _, ok := appErr.Details["fields"]; !ok {
				t.Error("expected field details")
			}
		})
	}
}
