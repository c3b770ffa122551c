package gemini

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kbukum/interviewscribe/llm"
)

func TestStreamPath(t *testing.T) {
	for _, model := range []string{"gemini-2.5-flash", "models/gemini-2.5-flash"} {
		if got := (Dialect{}).StreamPath(model); got != "/v1beta/models/gemini-2.5-flash:streamGenerateContent?alt=sse" {
			t.Errorf("StreamPath(%q) = %q", model, got)
		}
	}
}

func TestEncodeRequest(t *testing.T) {
	d := Dialect{}
	temp := 0.3
	body, err := d.EncodeRequest(llm.CompletionRequest{
		SystemPrompt: "be exact",
		Messages:     []llm.Message{{Role: "user", Content: "transcribe"}},
		Attachments:  []llm.Attachment{{URI: "https://files/abc", MimeType: "audio/mpeg"}},
		MaxTokens:    65536,
		Temperature:  &temp,
	})
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := json.Marshal(body)
	var got map[string]any
	_ = json.Unmarshal(raw, &got)

	contents := got["contents"].([]any)
	parts := contents[0].(map[string]any)["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected file part then text part, got %v", parts)
	}
	file := parts[0].(map[string]any)["fileData"].(map[string]any)
	if file["fileUri"] != "https://files/abc" || file["mimeType"] != "audio/mpeg" {
		t.Errorf("file part = %v", file)
	}
	if parts[1].(map[string]any)["text"] != "transcribe" {
		t.Errorf("text part = %v", parts[1])
	}
	gen := got["generationConfig"].(map[string]any)
	if gen["maxOutputTokens"] != float64(65536) || gen["temperature"] != 0.3 {
		t.Errorf("generationConfig = %v", gen)
	}
	if got["systemInstruction"] == nil {
		t.Error("system instruction missing")
	}

	if _, err := d.EncodeRequest(llm.CompletionRequest{}); err == nil {
		t.Error("expected error without messages")
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantText   string
		wantFinish string
		wantErr    string
	}{
		{
			name:     "text",
			data:     `{"candidates":[{"content":{"parts":[{"text":"{\"speaker\":"},{"text":"\"A\"}"}],"role":"model"}}]}`,
			wantText: `{"speaker":"A"}`,
		},
		{
			name:     "finished",
			data:     `{"candidates":[{"content":{"parts":[{"text":"\n"}]},"finishReason":"STOP"}]}`,
			wantText:   "\n",
			wantFinish: "STOP",
		},
		{
			name:     "max tokens",
			data:       `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`,
			wantFinish: "MAX_TOKENS",
		},
		{name: "usage only", data: `{"usageMetadata":{"totalTokenCount":9}}`},
		{name: "api error", data: `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`, wantErr: "quota"},
		{name: "blocked", data: `{"promptFeedback":{"blockReason":"SAFETY"}}`, wantErr: "SAFETY"},
		{name: "garbage", data: `nope`, wantErr: "decode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := (Dialect{}).DecodeEvent([]byte(tc.data))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Text != tc.wantText || d.FinishReason != tc.wantFinish {
				t.Errorf("got %+v, want (%q, %q)", d, tc.wantText, tc.wantFinish)
			}
		})
	}
}

func TestRegistered(t *testing.T) {
	if _, err := llm.Lookup("gemini"); err != nil {
		t.Error("gemini dialect should self-register")
	}
}
