// Package core implements the job dispatcher. A Core owns the memory
// pool, the random-bit generator and an ordered, fixed set of client
// channels; each ProcessNext call services at most one pending job,
// rotating fairly across channels. The dispatcher is single-threaded and
// cooperative: it never blocks, never sleeps and keeps no partial-job
// state between invocations.
package core

import (
	"errors"
	"fmt"

	"github.com/Nicoretti/sindri/sindri/crypto"
	"github.com/Nicoretti/sindri/sindri/jobs"
	"github.com/Nicoretti/sindri/sindri/keystore"
	"github.com/Nicoretti/sindri/sindri/pool"
)

var (
	ErrNoChannels = errors.New("core: at least one channel is required")
	ErrNilPool    = errors.New("core: pool must not be nil")
	ErrNilRng     = errors.New("core: rng must not be nil")
)

// Channel is the capability the dispatcher is written against. The two
// concrete realizations live in transport/memchan (static queues) and
// transport/uds (framed Unix socket); the dispatcher has no knowledge of
// either.
//
// TryRecv must not block; it reports false when no request is pending.
// Send must not block; it may fail (outbound capacity exhausted). A
// channel must not retain the response's Data slice after Send returns,
// because it is backed by pool memory that the next job reuses.
type Channel interface {
	TryRecv() (jobs.Request, bool)
	Send(jobs.Response) error
}

// Core is the job dispatcher.
type Core struct {
	pool     *pool.Pool
	rng      *crypto.Rng
	store    *keystore.Store
	channels []Channel
	next     int
}

// New creates a dispatcher over the given owned state. The channel set is
// fixed for the Core's lifetime. store may be nil, in which case requests
// that reference keys are answered with KEY_STORE_UNAVAILABLE.
func New(p *pool.Pool, rng *crypto.Rng, store *keystore.Store, channels []Channel) (*Core, error) {
	if p == nil {
		return nil, ErrNilPool
	}
	if rng == nil {
		return nil, ErrNilRng
	}
	if len(channels) == 0 {
		return nil, ErrNoChannels
	}
	return &Core{pool: p, rng: rng, store: store, channels: channels}, nil
}

// ProcessNext services at most one pending job. It returns (false, nil)
// when no channel has a request, (true, nil) when one job was serviced,
// and a non-nil error only when a response could not be sent; the job is
// then lost and the caller is expected to treat the condition as requiring
// operator attention.
func (c *Core) ProcessNext() (bool, error) {
	n := len(c.channels)
	for i := 0; i < n; i++ {
		idx := (c.next + i) % n
		req, ok := c.channels[idx].TryRecv()
		if !ok {
			continue
		}
		c.next = (idx + 1) % n
		resp := c.execute(req)
		if err := c.channels[idx].Send(resp); err != nil {
			return false, fmt.Errorf("core: response send on channel %d: %w", idx, err)
		}
		return true, nil
	}
	return false, nil
}

// execute runs one job to completion. Engine, pool and key store failures
// are converted to error responses here and never escape.
func (c *Core) execute(req jobs.Request) jobs.Response {
	switch req.Kind {
	case jobs.KindGetRandom:
		return c.execGetRandom(req)
	case jobs.KindImportKey:
		return c.execImportKey(req)
	case jobs.KindEncrypt:
		return c.execEncrypt(req)
	case jobs.KindDecrypt:
		return c.execDecrypt(req)
	default:
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorUnknownRequest}
	}
}

func (c *Core) execGetRandom(req jobs.Request) jobs.Response {
	buf, err := c.pool.Checkout(pool.ClassRandom, int(req.Size))
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorAlloc}
	}
	defer c.pool.Release(buf)

	out := buf.Bytes()[:req.Size]
	if err := c.rng.Fill(out); err != nil {
		// Fill only fails when a due reseed cannot pull from the entropy
		// source. The wire taxonomy has no RNG-fault kind, so the generic
		// engine failure code is reused.
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorEncryption}
	}
	return jobs.Response{Kind: req.Kind, Data: out}
}

func (c *Core) execImportKey(req jobs.Request) jobs.Response {
	if c.store == nil {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorKeyStoreUnavailable}
	}
	fp, err := c.store.Import(req.KeyID, req.Suite, req.Key)
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: mapStoreError(err)}
	}
	return jobs.Response{Kind: req.Kind, Data: fp[:]}
}

func (c *Core) execEncrypt(req jobs.Request) jobs.Response {
	suite, key, kind := c.resolveKey(req.KeyID)
	if kind != jobs.ErrorNone {
		return jobs.Response{Kind: req.Kind, Err: kind}
	}
	if len(req.AAD) > jobs.MaxAssociatedDataSize {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorAlloc}
	}

	buf, err := c.pool.Checkout(pool.ClassCiphertext, len(req.Data)+crypto.TagSize)
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorAlloc}
	}
	defer c.pool.Release(buf)

	out, err := crypto.Encrypt(suite, key, req.Nonce, req.AAD, req.Data, buf.Bytes())
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: mapCryptoError(err)}
	}
	return jobs.Response{Kind: req.Kind, Data: out}
}

func (c *Core) execDecrypt(req jobs.Request) jobs.Response {
	suite, key, kind := c.resolveKey(req.KeyID)
	if kind != jobs.ErrorNone {
		return jobs.Response{Kind: req.Kind, Err: kind}
	}
	if len(req.AAD) > jobs.MaxAssociatedDataSize {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorAlloc}
	}

	size := len(req.Data) - crypto.TagSize
	if size < 0 {
		size = 0
	}
	buf, err := c.pool.Checkout(pool.ClassPlaintext, size)
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: jobs.ErrorAlloc}
	}
	defer c.pool.Release(buf)

	out, err := crypto.Decrypt(suite, key, req.Nonce, req.AAD, req.Data, buf.Bytes())
	if err != nil {
		return jobs.Response{Kind: req.Kind, Err: mapCryptoError(err)}
	}
	return jobs.Response{Kind: req.Kind, Data: out}
}

func (c *Core) resolveKey(id uint32) (crypto.Suite, []byte, jobs.ErrorKind) {
	if c.store == nil {
		return 0, nil, jobs.ErrorKeyStoreUnavailable
	}
	suite, key, err := c.store.Get(id)
	if err != nil {
		return 0, nil, mapStoreError(err)
	}
	return suite, key, jobs.ErrorNone
}

func mapStoreError(err error) jobs.ErrorKind {
	switch {
	case errors.Is(err, keystore.ErrInvalidKeyID):
		return jobs.ErrorInvalidKeyID
	case errors.Is(err, keystore.ErrKeyNotFound):
		return jobs.ErrorKeyNotFound
	case errors.Is(err, keystore.ErrInvalidKeySize):
		return jobs.ErrorInvalidKeySize
	default:
		return jobs.ErrorEncryption
	}
}

func mapCryptoError(err error) jobs.ErrorKind {
	switch {
	case errors.Is(err, crypto.ErrInvalidKeySize):
		return jobs.ErrorInvalidKeySize
	case errors.Is(err, crypto.ErrInvalidIVSize):
		return jobs.ErrorInvalidIVSize
	case errors.Is(err, crypto.ErrInvalidBufferSize):
		return jobs.ErrorInvalidBufferSize
	case errors.Is(err, crypto.ErrBufferTooSmall):
		return jobs.ErrorAlloc
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return jobs.ErrorDecryption
	default:
		return jobs.ErrorEncryption
	}
}
