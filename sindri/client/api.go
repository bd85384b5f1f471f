// Package client provides the request/response API used on the client
// half of a channel. It is a thin marshaling layer: it owns no crypto and
// no memory beyond what the caller hands it.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/jobs"
)

var ErrResponseError = errors.New("client: request answered with an error response")

// Channel is the client-facing half of a core channel. Send may fail when
// the inbound queue is full; Recv must not block and reports false when no
// response is pending.
type Channel interface {
	Send(jobs.Request) error
	Recv() (jobs.Response, bool)
}

// API wraps a channel with per-operation convenience calls. The blocking
// helpers poll Recv until a response arrives or the context is done.
type API struct {
	ch   Channel
	poll time.Duration
}

// New creates an API over ch. pollInterval bounds how often the blocking
// helpers re-check for a response; zero defaults to one millisecond.
func New(ch Channel, pollInterval time.Duration) *API {
	if pollInterval <= 0 {
		pollInterval = time.Millisecond
	}
	return &API{ch: ch, poll: pollInterval}
}

// Enqueue submits a request without waiting for its response.
func (a *API) Enqueue(req jobs.Request) error {
	return a.ch.Send(req)
}

// Dequeue returns the next pending response, if any.
func (a *API) Dequeue() (jobs.Response, bool) {
	return a.ch.Recv()
}

// roundTrip submits a request and polls for the matching response.
// Responses arrive in request order on a channel, so the next response
// observed is the answer.
func (a *API) roundTrip(ctx context.Context, req jobs.Request) (jobs.Response, error) {
	if err := a.ch.Send(req); err != nil {
		return jobs.Response{}, err
	}
	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()
	for {
		if resp, ok := a.ch.Recv(); ok {
			if !resp.OK() {
				return resp, fmt.Errorf("%w: %s", ErrResponseError, resp.Err)
			}
			return resp, nil
		}
		select {
		case <-ctx.Done():
			return jobs.Response{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetRandom requests size bytes of randomness.
func (a *API) GetRandom(ctx context.Context, size int) ([]byte, error) {
	resp, err := a.roundTrip(ctx, jobs.Request{
		Kind: jobs.KindGetRandom,
		Size: uint32(size),
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ImportKey places key material into the core's key store and returns the
// key fingerprint.
func (a *API) ImportKey(ctx context.Context, id uint32, suite crypto.Suite, key []byte) ([]byte, error) {
	resp, err := a.roundTrip(ctx, jobs.Request{
		Kind:  jobs.KindImportKey,
		KeyID: id,
		Suite: suite,
		Key:   key,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Encrypt encrypts plaintext under the stored key id and returns
// ciphertext||tag.
func (a *API) Encrypt(ctx context.Context, id uint32, nonce, aad, plaintext []byte) ([]byte, error) {
	resp, err := a.roundTrip(ctx, jobs.Request{
		Kind:  jobs.KindEncrypt,
		KeyID: id,
		Nonce: nonce,
		AAD:   aad,
		Data:  plaintext,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Decrypt verifies and decrypts ciphertext||tag under the stored key id.
func (a *API) Decrypt(ctx context.Context, id uint32, nonce, aad, ciphertextWithTag []byte) ([]byte, error) {
	resp, err := a.roundTrip(ctx, jobs.Request{
		Kind:  jobs.KindDecrypt,
		KeyID: id,
		Nonce: nonce,
		AAD:   aad,
		Data:  ciphertextWithTag,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}
