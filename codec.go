package wal

import (
	"bytes"
	"encoding/gob"
)

// Codec is the pluggable payload (de)serialization capability the engine
// is parameterized over. The record payload format itself is out of
// scope for this library; the engine only needs these two operations.
type Codec[T any] interface {
	Encode(value T) ([]byte, error)
	Decode(data []byte) (T, error)
}

// GobCodec is the library's one shipped default Codec implementation,
// using encoding/gob. It requires no schema or codegen step, at the cost
// of being Go-specific and non-portable across languages.
type GobCodec[T any] struct{}

// Encode gob-encodes value.
func (GobCodec[T]) Encode(value T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode gob-decodes data into a new T.
func (GobCodec[T]) Decode(data []byte) (T, error) {
	var value T
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&value); err != nil {
		return value, err
	}
	return value, nil
}
