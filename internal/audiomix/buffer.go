package audiomix

import (
	"errors"
	"io"
)

var errInvalidSeek = errors.New("audiomix: invalid seek")

// patchBuffer is an in-memory io.WriteSeeker; the wav encoder seeks
// backwards on Close to patch the RIFF size fields.
type patchBuffer struct {
	data []byte
	pos  int
}

func (b *patchBuffer) Write(p []byte) (int, error) {
	if b.pos+len(p) > len(b.data) {
		grown := make([]byte, b.pos+len(p))
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *patchBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int
	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = b.pos + int(offset)
	case io.SeekEnd:
		next = len(b.data) + int(offset)
	default:
		return 0, errInvalidSeek
	}
	if next < 0 {
		return 0, errInvalidSeek
	}
	b.pos = next
	return int64(next), nil
}
