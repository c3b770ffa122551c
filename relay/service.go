package relay

import (
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/server"
	"github.com/kbukum/interviewscribe/server/endpoint"
)

// ServiceName identifies the relay in logs and /health.
const ServiceName = "scribe-relay"

// NewServer builds the relay HTTP server: standard middleware, /health,
// /info and the relay routes.
func NewServer(cfg Config, log *logger.Logger, checker endpoint.HealthChecker, opts ...Option) (*server.Server, error) {
	cfg.ApplyDefaults()
	h, err := New(cfg, log, opts...)
	if err != nil {
		return nil, err
	}
	srv := server.New(cfg.Server, log)
	srv.ApplyDefaults(ServiceName, checker)
	h.Register(srv.GinEngine())
	return srv, nil
}
