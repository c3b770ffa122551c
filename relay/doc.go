// Package relay is the upload relay: a small HTTP service that lets a
// client without direct provider access start a resumable upload and
// forward its chunks.
//
// Routes:
//
//	POST /api/upload/initiate   {name,size,mimeType} + X-Gemini-Key -> {uploadUrl}
//	PUT  /proxy-upload          chunk body + X-Upload-Target-URL -> upstream response
//
// Targets are checked against an allow-list before anything is forwarded.
// Keys, upload URLs and bodies are never logged.
package relay
