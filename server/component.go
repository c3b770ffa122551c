package server

import (
	"context"
	"fmt"

	"github.com/kbukum/interviewscribe/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*ServerComponent)(nil)
	_ component.Describable   = (*ServerComponent)(nil)
	_ component.RouteProvider = (*ServerComponent)(nil)
)

// ServerComponent adapts Server to the component lifecycle.
type ServerComponent struct {
	server *Server
}

// NewComponent wraps s.
func NewComponent(s *Server) *ServerComponent {
	return &ServerComponent{server: s}
}

func (sc *ServerComponent) Name() string { return componentName }

func (sc *ServerComponent) Start(ctx context.Context) error { return sc.server.Start(ctx) }

func (sc *ServerComponent) Stop(ctx context.Context) error { return sc.server.Stop(ctx) }

// Health is unhealthy until the listener is bound.
func (sc *ServerComponent) Health(ctx context.Context) component.Health {
	if !sc.server.Running() {
		return component.Health{Name: componentName, Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy}
}

func (sc *ServerComponent) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d h2c", cfg.Host, cfg.Port),
		Port:    cfg.Port,
	}
}

// Routes lists the gin routes, API routes first, then system routes.
func (sc *ServerComponent) Routes() []component.Route {
	return listRoutes(sc.server.engine.Routes())
}
