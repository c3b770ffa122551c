// Package server is the HTTP server under the upload relay: a gin engine
// served over HTTP/1.1 and h2c with a server-level middleware chain and
// default /health and /info endpoints.
//
//	srv := server.New(cfg, log)
//	srv.ApplyDefaults("scribe-relay", app.Components.HealthAll)
//	relayHandler.Register(srv.GinEngine())
//	app.RegisterComponent(server.NewComponent(srv))
//
// Middleware (server/middleware) uses the net/http signature. Route-scoped
// middleware such as the rate limiter is attached through GinWrap.
package server
