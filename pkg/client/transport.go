// Package client implements the consumer side of the protocol: spec.md
// §4.5 (pool manager), §4.6 (health monitor), and the address-keyed local
// registry spec.md §9 calls for. The transport and connection-state shape
// is grounded on the teacher's app/core/clients/base_client.go
// (Connect/Disconnect/IsConnected), generalized from a single boolean
// into the full Connected/Disconnected state machine spec.md §4.6 names.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohdas1am/maas/internal/errs"
	"github.com/mohdas1am/maas/internal/wire"
)

// Transport is a small HTTP client with a fixed per-request timeout,
// talking the wire protocol of spec.md §6. No pack repo imports a
// heavier HTTP client library for plain request/response calls, so this
// stays on net/http (see DESIGN.md).
type Transport struct {
	baseURL string
	http    *http.Client
}

// NewTransport builds a Transport against baseURL with the given
// per-request timeout (spec.md §5 "Every client HTTP call has a
// timeout").
func NewTransport(baseURL string, timeout time.Duration) *Transport {
	return &Transport{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (t *Transport) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.KindInternalError, err, "encode request body")
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(errs.KindTransportFailure, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindTransportFailure, err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody wire.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return errs.New(errs.KindTransportFailure, fmt.Sprintf("server returned status %d: %s", resp.StatusCode, errBody.Error))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.KindDecodeFailure, err, "decode response body")
	}
	return nil
}

// Allocate issues POST /allocate.
func (t *Transport) Allocate(ctx context.Context, sizeBytes int64) (wire.AllocateResponse, error) {
	var resp wire.AllocateResponse
	err := t.do(ctx, http.MethodPost, "/allocate", wire.AllocateRequest{SizeBytes: sizeBytes}, &resp)
	return resp, err
}

// Deallocate issues DELETE /allocate/{id}.
func (t *Transport) Deallocate(ctx context.Context, id string) error {
	return t.do(ctx, http.MethodDelete, "/allocate/"+id, nil, nil)
}

// Health issues GET /health.
func (t *Transport) Health(ctx context.Context) (wire.HealthResponse, error) {
	var resp wire.HealthResponse
	err := t.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}
