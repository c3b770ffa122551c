package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/interviewscribe/logger"
)

// Opener builds a backend from cfg.
type Opener func(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error)

var (
	openersMu sync.RWMutex
	openers   = map[string]Opener{}
)

// Register makes a provider available to Open. Backend packages call it
// from init, so they must be imported for their provider to exist.
func Register(provider string, open Opener) {
	openersMu.Lock()
	defer openersMu.Unlock()
	openers[provider] = open
}

// Open validates cfg and hands it to the registered provider.
func Open(ctx context.Context, cfg Config, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	openersMu.RLock()
	open, ok := openers[cfg.Provider]
	openersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not linked in", cfg.Provider)
	}
	return open(ctx, cfg, logger.OrGlobal(log).WithComponent("storage"))
}
