package llm

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Dialect maps provider-neutral requests onto one provider's HTTP API.
// Streams are always read as Server-Sent Events.
type Dialect interface {
	Name() string
	// StreamPath is the streaming generation endpoint for model.
	StreamPath(model string) string
	// ProbePath is a cheap GET that succeeds when the credentials work.
	// Empty means the provider has none.
	ProbePath() string
	EncodeRequest(req CompletionRequest) (any, error)
	// DecodeEvent extracts the delta carried by one SSE data payload.
	DecodeEvent(data []byte) (Delta, error)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]Dialect{}
)

// Register makes d available to New under d.Name(). Dialect packages call
// it from init; a later registration under the same name wins.
func Register(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[d.Name()] = d
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	if d, ok := dialects[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("llm: dialect %q not linked in", name)
}

// Registered lists the registered dialect names in order.
func Registered() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return slices.Sorted(maps.Keys(dialects))
}
