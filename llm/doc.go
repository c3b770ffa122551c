// Package llm streams generations from a language model provider. Wire
// formats live behind [Dialect], registered by name the way database/sql
// drivers are.
//
//	import _ "github.com/kbukum/interviewscribe/llm/gemini"
//
//	cfg := llm.Config{Dialect: "gemini", Model: "gemini-2.5-flash"}
//	cfg.BaseURL = gemini.DefaultBaseURL
//	adapter, err := llm.New(cfg)
//	chunks, err := adapter.Stream(ctx, llm.CompletionRequest{
//	    Messages:    []llm.Message{{Role: "user", Content: prompt}},
//	    Attachments: []llm.Attachment{{URI: fileURI, MimeType: "audio/mpeg"}},
//	})
//	for c := range chunks { ... }
package llm
