package component

import "context"

// HealthStatus is ordered: healthy < degraded < unhealthy.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

func (s HealthStatus) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Health is one component's answer to a health check.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Overall is the worst status in hs, or healthy when hs is empty.
func Overall(hs []Health) HealthStatus {
	worst := StatusHealthy
	for _, h := range hs {
		if h.Status.rank() > worst.rank() {
			worst = h.Status
		}
	}
	return worst
}

// Check reports name as healthy when ping succeeds. A nil ping means the
// component has not started.
func Check(ctx context.Context, name string, ping func(context.Context) error) Health {
	switch {
	case ping == nil:
		return Health{Name: name, Status: StatusUnhealthy, Message: "not started"}
	default:
		if err := ping(ctx); err != nil {
			return Health{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
	}
	return Health{Name: name, Status: StatusHealthy}
}

// Component is a piece of infrastructure with a start/stop lifecycle:
// the store, its sqlite or redis backend, object storage, the relay server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary.
type Description struct {
	// Name defaults to the component's Name().
	Name    string
	Type    string
	Details string
	Port    int
}

// Describable components appear in the startup summary.
type Describable interface {
	Describe() Description
}

// Route is one HTTP route listed in the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider is implemented by components that serve HTTP.
type RouteProvider interface {
	Routes() []Route
}
