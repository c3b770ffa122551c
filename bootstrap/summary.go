package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/interviewscribe/component"
)

// Summary prints what a process started with: components, routes and
// live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
}

// NewSummary creates a summary for the named service.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Write renders the summary. Components are described through
// component.Describable and routes through component.RouteProvider.
func (s *Summary) Write(ctx context.Context, w io.Writer, registry *component.Registry) {
	version := s.version
	if version == "" {
		version = "dev"
	}
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, version, s.startupDuration.Seconds())
	if registry == nil {
		fmt.Fprintln(w)
		return
	}

	descs := registry.Descriptions()
	if len(descs) > 0 {
		fmt.Fprintf(w, "\nComponents\n")
		for i, d := range descs {
			details := d.Details
			if d.Port > 0 {
				details = fmt.Sprintf("%s (:%d)", details, d.Port)
			}
			fmt.Fprintf(w, "   %s %s [%s] %s\n", treePrefix(i, len(descs)), d.Name, d.Type, details)
		}
	}

	var routes []component.Route
	for _, c := range registry.All() {
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}
	if len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(ctx)
	if len(health) > 0 {
		fmt.Fprintf(w, "\nHealth\n")
		for i, h := range health {
			msg := ""
			if h.Message != "" {
				msg = ": " + h.Message
			}
			fmt.Fprintf(w, "   %s %s %s %s%s\n", treePrefix(i, len(health)), healthMark(h.Status), h.Name, strings.ToLower(string(h.Status)), msg)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthMark(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "[ok]"
	case component.StatusDegraded:
		return "[!!]"
	case component.StatusUnhealthy:
		return "[xx]"
	default:
		return "[??]"
	}
}
