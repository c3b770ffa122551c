// Package component defines the lifecycle contract shared by the store,
// database, redis, object storage and relay server.
//
// A Registry starts components in registration order and stops them in
// reverse, so a component registered after the store can still write to it
// while shutting down.
//
//   - Component: Start/Stop/Health
//   - Describable: startup summary descriptions
//   - RouteProvider: routes served by an HTTP component
package component
