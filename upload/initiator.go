package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/httpclient"
)

// Protocol headers of the resumable upload API.
const (
	HeaderProtocol      = "X-Goog-Upload-Protocol"
	HeaderCommand       = "X-Goog-Upload-Command"
	HeaderOffset        = "X-Goog-Upload-Offset"
	HeaderURL           = "X-Goog-Upload-URL"
	HeaderContentLength = "X-Goog-Upload-Header-Content-Length"
	HeaderContentType   = "X-Goog-Upload-Header-Content-Type"
	HeaderAPIKey        = "x-goog-api-key"

	// HeaderRelayKey carries the caller's API key to the relay.
	HeaderRelayKey = "X-Gemini-Key"
	// HeaderRelayTarget names the upload URL a relayed chunk is forwarded to.
	HeaderRelayTarget = "X-Upload-Target-URL"
	// HeaderRelayTargetLegacy is accepted by the relay for older clients.
	HeaderRelayTargetLegacy = "X-Upload-Url"
)

// DefaultIntakeURL is the provider's upload host.
const DefaultIntakeURL = "https://" + DefaultTargetHost

// FileMeta describes the file being uploaded.
type FileMeta struct {
	Name     string `json:"name" validate:"required"`
	Size     int64  `json:"size" validate:"required,gt=0"`
	MimeType string `json:"mimeType" validate:"required,mimetype"`
}

// MetaOf returns the FileMeta of src.
func MetaOf(src Source) FileMeta {
	return FileMeta{Name: src.Name(), Size: src.Size(), MimeType: src.MimeType()}
}

// Initiator negotiates a single-use upload URL.
type Initiator interface {
	Initiate(ctx context.Context, meta FileMeta, credential string) (string, error)
}

// DirectInitiator starts a resumable upload at the provider intake.
type DirectInitiator struct {
	client  *httpclient.Client
	baseURL string
}

// NewDirectInitiator creates an initiator against baseURL, or the provider
// intake when baseURL is empty.
func NewDirectInitiator(client *httpclient.Client, baseURL string) *DirectInitiator {
	if baseURL == "" {
		baseURL = DefaultIntakeURL
	}
	return &DirectInitiator{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type startBody struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

func (d *DirectInitiator) Initiate(ctx context.Context, meta FileMeta, credential string) (string, error) {
	var body startBody
	body.File.DisplayName = meta.Name

	resp, err := d.client.Do(ctx, httpclient.Request{
		Method: "POST",
		Path:   d.baseURL + "/upload/v1beta/files",
		Headers: map[string]string{
			HeaderProtocol:      "resumable",
			HeaderCommand:       "start",
			HeaderContentLength: strconv.FormatInt(meta.Size, 10),
			HeaderContentType:   meta.MimeType,
		},
		Body: body,
		Auth: httpclient.APIKeyAuthHeader(credential, HeaderAPIKey),
	})
	if err != nil {
		return "", initiateError(ctx, err)
	}
	uploadURL := resp.Headers.Get(HeaderURL)
	if uploadURL == "" {
		return "", errors.UploadFailed(0, resp.StatusCode, fmt.Errorf("provider returned no upload URL"))
	}
	return uploadURL, nil
}

// RelayInitiator asks the upload relay to start the upload.
type RelayInitiator struct {
	client   *httpclient.Client
	relayURL string
}

// NewRelayInitiator creates an initiator against the relay at relayURL.
func NewRelayInitiator(client *httpclient.Client, relayURL string) *RelayInitiator {
	return &RelayInitiator{client: client, relayURL: strings.TrimRight(relayURL, "/")}
}

type initiateResponse struct {
	UploadURL string `json:"uploadUrl"`
}

func (r *RelayInitiator) Initiate(ctx context.Context, meta FileMeta, credential string) (string, error) {
	resp, err := r.client.Do(ctx, httpclient.Request{
		Method:  "POST",
		Path:    r.relayURL + "/api/upload/initiate",
		Headers: map[string]string{HeaderRelayKey: credential},
		Body:    meta,
	})
	if err != nil {
		return "", initiateError(ctx, err)
	}
	var out initiateResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return "", errors.UploadFailed(0, resp.StatusCode, fmt.Errorf("decode relay response: %w", err))
	}
	if out.UploadURL == "" {
		return "", errors.UploadFailed(0, resp.StatusCode, fmt.Errorf("relay returned no upload URL"))
	}
	return out.UploadURL, nil
}

func initiateError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return context.Canceled
	}
	return errors.UploadFailed(0, httpclient.StatusOf(err), err)
}
