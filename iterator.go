package wal

import (
	"bufio"
	"os"
)

// Iterator is a lazy, finite, non-restartable stream of decoded records
// recovered across every segment in chronological order. Construction
// snapshots the ordered segment paths at the moment Read() was called;
// iteration opens segments one at a time.
type Iterator[T any] struct {
	paths []string
	idx   int

	f  *os.File
	br *bufio.Reader

	decode func([]byte) (T, error)
	onDone func()
	done   bool
}

func newIterator[T any](paths []string, decode func([]byte) (T, error), onDone func()) *Iterator[T] {
	return &Iterator[T]{paths: paths, decode: decode, onDone: onDone}
}

// Next returns the next decoded record. ok is false once every segment is
// exhausted, at which point the engine has returned to Idle mode.
func (it *Iterator[T]) Next() (value T, ok bool, err error) {
	if it.done {
		return value, false, nil
	}
	for {
		if it.br == nil {
			if !it.openNext() {
				it.finish()
				return value, false, nil
			}
		}

		payload, ferr := decodeFrame(it.br)
		if ferr != nil {
			// segment exhausted (cleanly, or at a torn tail): move to the
			// next one and keep going.
			it.closeCurrent()
			continue
		}

		value, err = it.decode(payload)
		if err != nil {
			return value, false, newError(CodecError, err)
		}
		return value, true, nil
	}
}

func (it *Iterator[T]) openNext() bool {
	for it.idx < len(it.paths) {
		path := it.paths[it.idx]
		it.idx++
		f, err := os.Open(path)
		if err != nil {
			continue // segment vanished between snapshot and open: skip it
		}
		it.f = f
		it.br = bufio.NewReaderSize(f, readChunkSize)
		return true
	}
	return false
}

func (it *Iterator[T]) closeCurrent() {
	if it.f != nil {
		it.f.Close()
	}
	it.f = nil
	it.br = nil
}

func (it *Iterator[T]) finish() {
	it.closeCurrent()
	if !it.done {
		it.done = true
		it.onDone()
	}
}

// Close ends iteration early, returning the engine to Idle. Safe to call
// after natural exhaustion too.
func (it *Iterator[T]) Close() error {
	it.finish()
	return nil
}
