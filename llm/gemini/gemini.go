// Package gemini is the llm Dialect for the Gemini generateContent API.
//
// Importing it registers the "gemini" dialect:
//
//	import _ "github.com/kbukum/interviewscribe/llm/gemini"
package gemini

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/interviewscribe/llm"
)

const (
	// DefaultBaseURL is the public Gemini endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	// APIKeyHeader carries the API key on every request.
	APIKeyHeader = "x-goog-api-key"
)

func init() {
	llm.Register(Dialect{})
}

// Dialect implements llm.Dialect for Gemini.
type Dialect struct{}

var _ llm.Dialect = Dialect{}

func (Dialect) Name() string { return "gemini" }

// StreamPath accepts the model with or without its "models/" prefix.
func (Dialect) StreamPath(model string) string {
	return "/v1beta/models/" + url.PathEscape(strings.TrimPrefix(model, "models/")) + ":streamGenerateContent?alt=sse"
}

// ProbePath lists a single model, which needs a valid key.
func (Dialect) ProbePath() string { return "/v1beta/models?pageSize=1" }

type fileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"fileData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type request struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type response struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// EncodeRequest maps the request to a generateContent body. Attachments
// are placed ahead of the text in the final user turn.
func (Dialect) EncodeRequest(req llm.CompletionRequest) (any, error) {
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("gemini: at least one message is required")
	}

	body := request{
		GenerationConfig: generationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}

	last := len(req.Messages) - 1
	for i, m := range req.Messages {
		role := "user"
		if m.Role == "assistant" || m.Role == "model" {
			role = "model"
		}
		c := content{Role: role}
		if i == last {
			for _, a := range req.Attachments {
				c.Parts = append(c.Parts, part{FileData: &fileData{MimeType: a.MimeType, FileURI: a.URI}})
			}
		}
		c.Parts = append(c.Parts, part{Text: m.Content})
		body.Contents = append(body.Contents, c)
	}
	return body, nil
}

// DecodeEvent returns the text of one SSE payload. Any finish reason,
// MAX_TOKENS included, ends the stream.
func (Dialect) DecodeEvent(data []byte) (llm.Delta, error) {
	r, err := decode(data)
	if err != nil {
		return llm.Delta{}, err
	}
	if len(r.Candidates) == 0 {
		return llm.Delta{}, nil
	}
	c := r.Candidates[0]
	var b strings.Builder
	for _, p := range c.Content.Parts {
		b.WriteString(p.Text)
	}
	return llm.Delta{Text: b.String(), FinishReason: c.FinishReason}, nil
}

func decode(data []byte) (*response, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("gemini: decode response: %w", err)
	}
	if r.Error != nil {
		return nil, fmt.Errorf("gemini: %s (%d %s)", r.Error.Message, r.Error.Code, r.Error.Status)
	}
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("gemini: prompt blocked: %s", r.PromptFeedback.BlockReason)
	}
	return &r, nil
}
