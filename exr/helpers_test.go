package exr

import "bytes"

// readerAtWrapper exposes only io.ReaderAt over a *bytes.Reader, so tests
// exercising OpenReader can't accidentally rely on Read/Seek semantics
// instead of the random-access contract File actually depends on.
type readerAtWrapper struct {
	r *bytes.Reader
}

func (w *readerAtWrapper) ReadAt(p []byte, off int64) (int, error) {
	return w.r.ReadAt(p, off)
}
