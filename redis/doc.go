// Package redis connects to a Redis server with go-redis and exposes the
// handful of string commands the record store needs.
//
//	client, err := redis.New(redis.Config{Addr: "localhost:6379"}, log)
//	if err != nil { ... }
//	defer client.Close()
//	value, ok, err := client.GetBytes(ctx, "scribe:ii:meta")
package redis
