package server

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/interviewscribe/component"
)

// systemPaths are listed after the API routes.
var systemPaths = map[string]bool{
	"/health": true,
	"/info":   true,
}

var methodRank = map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}

func listRoutes(infos gin.RoutesInfo) []component.Route {
	infos = slices.Clone(infos)
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		return cmp.Or(
			cmp.Compare(rankSystem(a.Path), rankSystem(b.Path)),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(rankMethod(a.Method), rankMethod(b.Method)),
		)
	})
	routes := make([]component.Route, len(infos))
	for i, r := range infos {
		routes[i] = component.Route{Method: r.Method, Path: r.Path, Handler: handlerName(r.Handler)}
	}
	return routes
}

func rankSystem(path string) int {
	if systemPaths[path] {
		return 1
	}
	return 0
}

func rankMethod(m string) int {
	if r, ok := methodRank[m]; ok {
		return r
	}
	return len(methodRank)
}

// handlerName shortens a gin handler symbol for display:
// "…/relay.(*Handler).initiate-fm" is "Handler.initiate" and a closure
// returned by endpoint.Health is "health".
func handlerName(symbol string) string {
	name := symbol[strings.LastIndexByte(symbol, '/')+1:]
	name = strings.TrimSuffix(name, "-fm")
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	closure := false
	for len(parts) > 1 && isClosure(parts[len(parts)-1]) {
		parts, closure = parts[:len(parts)-1], true
	}
	if closure {
		return strings.ToLower(parts[len(parts)-1])
	}
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

// isClosure matches the "func1" and "1" segments of anonymous functions.
func isClosure(seg string) bool {
	if strings.HasPrefix(seg, "func") {
		return true
	}
	_, err := strconv.Atoi(seg)
	return err == nil
}
