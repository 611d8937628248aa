package chunk

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// WriteIndex writes the little-endian uint32 size of the gob-encoded index
// followed by the encoded index.
func WriteIndex(w io.Writer, idx Index) error {
	indexBuf := new(bytes.Buffer)
	if err := gob.NewEncoder(indexBuf).Encode(idx); err != nil {
		return errors.Wrap(err, "encoding chunk index")
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(indexBuf.Len())); err != nil {
		return errors.Wrap(err, "writing chunk index size")
	}
	if _, err := w.Write(indexBuf.Bytes()); err != nil {
		return errors.Wrap(err, "writing chunk index")
	}
	return nil
}

// ReadIndex reads what WriteIndex wrote and also returns the size of the
// encoded index.
func ReadIndex(r io.Reader) (Index, uint32, error) {
	buf := make([]byte, 4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, errors.Wrap(err, "reading chunk index size")
	}
	indexLength := binary.LittleEndian.Uint32(buf)

	buf = make([]byte, indexLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, 0, errors.Wrap(err, "reading chunk index")
	}

	var idx Index
	// gob needs its own reader so that it does not consume past the index
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&idx); err != nil {
		return nil, 0, errors.Wrap(err, "decoding chunk index")
	}
	return idx, indexLength, nil
}
