package llm

// Message is one conversation turn. Role is "user" or "model".
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Attachment references a previously uploaded file the model should read.
type Attachment struct {
	URI      string `json:"uri" yaml:"uri"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
}

// CompletionRequest is the provider-neutral generation input. An empty
// Model, a nil Temperature and a zero MaxTokens take the adapter's defaults.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	Messages     []Message
	// Attachments are placed ahead of the final user message.
	Attachments []Attachment
	Temperature *float64
	MaxTokens   int
}

// Delta is what a dialect extracts from one stream event.
type Delta struct {
	Text string
	// FinishReason is non-empty on the event that ends the stream.
	FinishReason string
}

// StreamChunk is one value delivered by Adapter.Stream.
type StreamChunk struct {
	Content      string
	FinishReason string
	// Done marks the final chunk.
	Done bool
	// Err is set when the stream fails. It is always the last value sent.
	Err error
}
