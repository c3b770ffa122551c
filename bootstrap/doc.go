// Package bootstrap runs an application's components through one lifecycle.
//
// NewApp applies config defaults, validates the config and initializes the
// logger. Components registered on the App start in order and stop in
// reverse on every exit path, so the store's Stop always flushes pending
// writes.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(store.NewComponent(st, "sqlite"))
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return transcribe(ctx)
//	})
//
// Run serves until SIGINT/SIGTERM. RunTask runs a finite task and turns
// those signals into cancellation of the task's context.
package bootstrap
