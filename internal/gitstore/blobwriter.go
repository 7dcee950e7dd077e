package gitstore

import (
	"bytes"
	"io"

	"github.com/go-git/go-git/v5/plumbing"

	"absorb/internal/storeapi"
)

// blobWriter buffers bytes and commits them as a single blob object via the
// repository's storer, which owns the on-disk (or in-memory) encoding.
type blobWriter struct {
	store *Store
	buf   bytes.Buffer
}

func (s *Store) NewBlobWriter() (storeapi.BlobWriter, error) {
	return &blobWriter{store: s}, nil
}

func (w *blobWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *blobWriter) Commit() (storeapi.OID, error) {
	obj := w.store.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)

	ow, err := obj.Writer()
	if err != nil {
		return storeapi.ZeroOID, err
	}
	if _, err := ow.Write(w.buf.Bytes()); err != nil {
		return storeapi.ZeroOID, err
	}
	if c, ok := ow.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return storeapi.ZeroOID, err
		}
	}

	h, err := w.store.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return storeapi.ZeroOID, err
	}
	return storeapi.OID(h.String()), nil
}
