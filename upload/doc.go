// Package upload moves a recording to the provider with the resumable
// upload protocol.
//
// An Initiator negotiates a single-use upload URL. Transport then reads the
// source one chunk at a time and PUTs each chunk, either directly to that
// URL or through the upload relay:
//
//	tr, err := upload.New(upload.Config{Mode: upload.ModeDirect}, log)
//	src, err := upload.OpenFile("interview.m4a", "")
//	defer src.Close()
//	uri, err := tr.Upload(ctx, src, apiKey, func(pct int) { ... })
//
// A failed chunk is terminal. The caller restarts the whole upload, since
// upload URLs are single use.
package upload
