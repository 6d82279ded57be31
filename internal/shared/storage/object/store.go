package object

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotFound is returned by Open when no object exists at the key.
var ErrNotFound = errors.New("object not found")

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	SniffedType string
	SHA256      string
}

// ObjectStore saves, opens and removes document blobs. Keys returned by Save
// are opaque to callers.
type ObjectStore interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

const sniffLen = 3072

// Meter wraps an upload body and records its size, digest and leading bytes
// as they are read.
type Meter struct {
	r    io.Reader
	sum  hash.Hash
	head []byte
	n    int64
}

// NewMeter returns a Meter reading from r.
func NewMeter(r io.Reader) *Meter {
	return &Meter{r: r, sum: sha256.New()}
}

func (m *Meter) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if n > 0 {
		m.sum.Write(p[:n])
		m.n += int64(n)
		if room := sniffLen - len(m.head); room > 0 {
			m.head = append(m.head, p[:min(n, room)]...)
		}
	}
	return n, err
}

// Object describes everything read so far under key.
func (m *Meter) Object(key string) Object {
	return Object{
		Key:         key,
		Size:        m.n,
		SniffedType: mimetype.Detect(m.head).String(),
		SHA256:      hex.EncodeToString(m.sum.Sum(nil)),
	}
}
