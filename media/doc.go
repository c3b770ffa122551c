// Package media inspects recordings with an external ffprobe binary.
//
//	p := media.NewProber(media.Config{}, log)
//	seconds, err := p.Duration(ctx, "interview.m4a")
//
// The probe is optional. When ffprobe is missing or disabled callers fall
// back to a user-supplied duration.
package media
