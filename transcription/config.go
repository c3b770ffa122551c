package transcription

import (
	"fmt"
	"time"
)

// Config holds the assembler thresholds. Zero fields take the defaults.
type Config struct {
	// Model overrides the generator's default model.
	Model string `yaml:"model" mapstructure:"model"`
	// MaxRounds is the hard ceiling on generation rounds.
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds"`
	// MaxStalls is how many consecutive empty or failed rounds are tolerated.
	MaxStalls int `yaml:"max_stalls" mapstructure:"max_stalls"`
	// EndMargin stops the run once the cursor is this close to the end.
	EndMargin time.Duration `yaml:"end_margin" mapstructure:"end_margin"`
	// TailWindow treats an empty round this close to the end as completion.
	TailWindow time.Duration `yaml:"tail_window" mapstructure:"tail_window"`
	// CompleteRatio treats an empty round past this coverage as completion.
	CompleteRatio float64 `yaml:"complete_ratio" mapstructure:"complete_ratio"`
	// StallNudge advances the cursor after an empty round.
	StallNudge time.Duration `yaml:"stall_nudge" mapstructure:"stall_nudge"`
	// RewindTolerance rejects continuation segments earlier than cursor minus this.
	RewindTolerance time.Duration `yaml:"rewind_tolerance" mapstructure:"rewind_tolerance"`
	// DedupWindow is how many recent segments are checked for duplicates.
	DedupWindow int `yaml:"dedup_window" mapstructure:"dedup_window"`
	// DedupMinLength exempts segments whose texts are both shorter than this.
	DedupMinLength int `yaml:"dedup_min_length" mapstructure:"dedup_min_length"`
	// ContextSegments is how many trailing segments anchor a continuation prompt.
	ContextSegments int `yaml:"context_segments" mapstructure:"context_segments"`
	// ContextChars truncates the anchor to its last N characters.
	ContextChars    int `yaml:"context_chars" mapstructure:"context_chars"`
	MaxOutputTokens int `yaml:"max_output_tokens" mapstructure:"max_output_tokens"`
	// Temperature defaults to 0.3 when unset. Zero is kept.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxRounds:       40,
		MaxStalls:       3,
		EndMargin:       2 * time.Second,
		TailWindow:      10 * time.Second,
		CompleteRatio:   0.99,
		StallNudge:      5 * time.Second,
		RewindTolerance: 30 * time.Second,
		DedupWindow:     50,
		DedupMinLength:  10,
		ContextSegments: 5,
		ContextChars:    200,
		MaxOutputTokens: 65536,
		Temperature:     temperature(0.3),
	}
}

// ApplyDefaults fills zero fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.MaxRounds <= 0 {
		c.MaxRounds = d.MaxRounds
	}
	if c.MaxStalls <= 0 {
		c.MaxStalls = d.MaxStalls
	}
	if c.EndMargin <= 0 {
		c.EndMargin = d.EndMargin
	}
	if c.TailWindow <= 0 {
		c.TailWindow = d.TailWindow
	}
	if c.CompleteRatio <= 0 {
		c.CompleteRatio = d.CompleteRatio
	}
	if c.StallNudge <= 0 {
		c.StallNudge = d.StallNudge
	}
	if c.RewindTolerance <= 0 {
		c.RewindTolerance = d.RewindTolerance
	}
	if c.DedupWindow <= 0 {
		c.DedupWindow = d.DedupWindow
	}
	if c.DedupMinLength <= 0 {
		c.DedupMinLength = d.DedupMinLength
	}
	if c.ContextSegments <= 0 {
		c.ContextSegments = d.ContextSegments
	}
	if c.ContextChars <= 0 {
		c.ContextChars = d.ContextChars
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = d.MaxOutputTokens
	}
	if c.Temperature == nil {
		c.Temperature = d.Temperature
	}
}

// Validate checks ranges that ApplyDefaults cannot fix.
func (c *Config) Validate() error {
	if c.CompleteRatio > 1 {
		return fmt.Errorf("transcription: complete_ratio must be at most 1, got %v", c.CompleteRatio)
	}
	if t := c.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("transcription: temperature must be between 0 and 2, got %v", *t)
	}
	return nil
}

func temperature(v float64) *float64 { return &v }
