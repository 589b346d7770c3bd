// Package wal implements an embeddable write-ahead log. Its purpose is
// durability: before a write is acknowledged, it is appended to the WAL.
// If the process crashes after an append but before the caller observed
// acknowledgement, recovery can replay it from the WAL; if it crashes
// before the append, the write can be safely retried.
//
// A write may sit in the in-memory write buffer or the kernel page cache
// before it is synced to disk. WAL is agnostic about the durability/
// throughput trade-off and lets the caller decide: batch writes behind a
// buffer, call Flush() after every write, or configure fsync-on-flush.
//
// Records are written to fixed-size segment files that live in one
// directory per WAL instance. When a segment fills up, WAL seals it and
// opens the next one; when the directory's total size exceeds a
// configured cap, WAL retires the oldest sealed segments. A WAL instance
// is either idle, writing, or reading - read and write are mutually
// exclusive within one instance, so retention never races a read.
package wal

// WAL is a handle to a durable, append-only log of typed records. Handles
// are cheap to copy: every copy shares the same underlying engine, so
// concurrent writer goroutines can each hold their own WAL value.
type WAL[T any] struct {
	codec Codec[T]
	eng   *engine
}

// Clone returns a handle sharing the same underlying engine. Since WAL is
// already a thin struct over a shared pointer, this is equivalent to a
// plain assignment; it exists to make the sharing explicit at call sites.
func (w WAL[T]) Clone() WAL[T] {
	return w
}

// Write encodes value with the configured codec, frames it, and appends
// it durably per the configured buffering/fsync semantics. A successful
// Write happens-before any later Write from any handle (appends are
// linearized under the engine's mutex); the on-disk order equals the
// mutex acquisition order.
//
// If the engine is currently in Reading mode, Write is a documented no-op:
// it returns nil without appending anything.
func (w WAL[T]) Write(value T) error {
	payload, err := w.codec.Encode(value)
	if err != nil {
		return newError(CodecError, err)
	}
	frame, err := encodeFrame(payload)
	if err != nil {
		return err
	}
	return w.eng.appendFrame(frame)
}

// Flush forces any buffered writes to the active segment, fsync'ing it
// too if fsync is enabled. It is a no-op if nothing is buffered or the
// engine is in Reading mode. After Flush returns successfully, every
// write that completed before it was called is durable.
func (w WAL[T]) Flush() error {
	return w.eng.flush()
}

// Read returns a lazy iterator over every record across every segment, in
// chronological order. Read is only valid from Idle mode; it fails with
// ErrAlreadyInWriteMode if any Write has ever succeeded on this engine.
func (w WAL[T]) Read() (*Iterator[T], error) {
	paths, err := w.eng.startRead()
	if err != nil {
		return nil, err
	}
	return newIterator(paths, w.codec.Decode, w.eng.endRead), nil
}

// Close stops the background auto-flush goroutine. It does not flush;
// call Flush first if durability of buffered writes is required.
func (w WAL[T]) Close() error {
	return w.eng.close()
}

// Open builds a WAL from the given options. WithLocation is required; the
// directory is created if absent. Build-time failures (missing location,
// a nonsensical size, an unwritable directory) are returned to the caller.
func Open[T any](codec Codec[T], opts ...Option) (WAL[T], error) {
	cfg, err := buildConfig(opts...)
	if err != nil {
		return WAL[T]{}, err
	}
	eng, err := openEngine(cfg)
	if err != nil {
		return WAL[T]{}, err
	}
	return WAL[T]{codec: codec, eng: eng}, nil
}

// New is a minimal direct constructor: a directory and an optional
// storage cap in megabytes. storageMB is nil for unbounded storage;
// every other option takes its default.
func New[T any](codec Codec[T], dir string, storageMB *int) (WAL[T], error) {
	opts := []Option{WithLocation(dir)}
	if storageMB != nil {
		opts = append(opts, WithStorageSize(MB(uint64(*storageMB))))
	}
	return Open(codec, opts...)
}
