// Package storage reads recordings from object storage by byte range.
// Backends live in subpackages and register themselves on import:
//
//	import _ "github.com/kbukum/interviewscribe/storage/s3"
//
//	st, err := storage.Open(ctx, storage.Config{Provider: "s3", Bucket: "recordings"}, log)
//	info, err := st.Stat(ctx, "2024/interview.mp3")
//	chunk, err := st.ReadRange(ctx, "2024/interview.mp3", 0, 1<<20)
package storage
