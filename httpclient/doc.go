// Package httpclient is the outbound HTTP layer shared by the upload
// transport, the upload relay and the generation client.
//
// It handles base URLs, default headers, API-key authentication, typed
// status classification and optional retry, circuit breaking and rate
// limiting. Streaming responses are exposed through the sse subpackage.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://generativelanguage.googleapis.com",
//	    Auth:    httpclient.APIKeyAuthHeader(key, "x-goog-api-key"),
//	})
//	stream, err := client.DoStream(ctx, httpclient.Request{Method: http.MethodPost, Path: path, Body: payload})
package httpclient
