package wal

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// readChunkSize is the buffered-reader size used for both recovery
// scanning and the read iterator.
const readChunkSize = 8 * 1024

// defaultFlushInterval is the background auto-flush cadence, fixed here
// and documented as the stable default for this release.
const defaultFlushInterval = 2 * time.Second

// mode is the engine's read/write exclusion state.
type mode int32

const (
	modeIdle mode = iota
	modeReading
	modeWriting
)

// engine is the shared append-engine state behind every WAL handle clone.
// All write-path operations - write, flush, rotation, retention - hold
// mu for their duration; the critical section is short (a memcpy into the
// buffer, or an occasional disk write of up to bufferSize bytes).
type engine struct {
	mu     sync.Mutex
	mode   mode
	cfg    Config
	dir    *segmentDirectory
	active *segmentFile
	buf    *writeBuffer

	flusherStop chan struct{}
	flusherDone chan struct{}
}

func openEngine(cfg Config) (*engine, error) {
	dir, err := openSegmentDirectory(cfg.dir)
	if err != nil {
		return nil, newError(IoError, err)
	}

	active, err := dir.activeForAppend(int64(cfg.segmentSize), cfg.logger)
	if err != nil {
		return nil, newError(IoError, err)
	}

	e := &engine{
		cfg:    cfg,
		dir:    dir,
		active: active,
	}
	if cfg.bufferSize > 0 {
		e.buf = newWriteBuffer(int(cfg.bufferSize))
	}

	if e.buf != nil {
		e.flusherStop = make(chan struct{})
		e.flusherDone = make(chan struct{})
		go e.runAutoFlush()
	}

	return e, nil
}

// appendFrame is the write(value) algorithm, operating on an
// already-encoded frame.
func (e *engine) appendFrame(frame []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.mode == modeReading {
		return nil // silently dropped while a read is in progress
	}
	if e.mode == modeIdle {
		e.mode = modeWriting
	}

	wroteDirect := false
	switch {
	case e.buf == nil || len(frame) > e.buf.capacity():
		if e.buf != nil && e.buf.used > 0 {
			if err := e.flushLocked(); err != nil {
				return err
			}
		}
		if err := e.writeDirectLocked(frame); err != nil {
			return err
		}
		wroteDirect = true
	default:
		switch e.buf.tryAppend(frame) {
		case bufferBatched:
		case bufferFullNeedsFlush:
			if err := e.flushLocked(); err != nil {
				return err
			}
			if e.buf.tryAppend(frame) != bufferBatched {
				if err := e.writeDirectLocked(frame); err != nil {
					return err
				}
				wroteDirect = true
			}
		}
	}

	if wroteDirect && e.cfg.fsync {
		if err := e.active.fsync(); err != nil {
			return newError(IoError, err)
		}
	}

	if int64(e.active.length) >= int64(e.cfg.segmentSize) {
		if err := e.rotateLocked(); err != nil {
			return err
		}
	}

	if e.cfg.storageSize > 0 {
		e.dir.setActiveSize(e.active.id, e.active.length)
		if e.dir.totalSize() > int64(e.cfg.storageSize) {
			e.dir.retireUntilWithinCap(int64(e.cfg.storageSize), e.active.id, e.cfg.logger)
		}
	}

	return nil
}

func (e *engine) writeDirectLocked(frame []byte) error {
	if err := e.active.appendFrame(frame); err != nil {
		return newError(IoError, err)
	}
	return nil
}

// flushLocked writes any buffered bytes to the active segment and fsyncs
// it if configured. Buffered bytes are discarded by writeBuffer.take()
// before the write happens, so a failed flush never leaves the buffer
// holding bytes that might be double-written.
func (e *engine) flushLocked() error {
	if e.buf == nil || e.buf.used == 0 {
		return nil
	}
	data := e.buf.take()
	if err := e.active.appendFrame(data); err != nil {
		return newError(IoError, err)
	}
	if e.cfg.fsync {
		if err := e.active.fsync(); err != nil {
			return newError(IoError, err)
		}
	}
	return nil
}

// flush is the public flush() operation: a no-op in Reading mode, or in
// Writing mode with nothing buffered.
func (e *engine) flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode != modeWriting {
		return nil
	}
	return e.flushLocked()
}

func (e *engine) rotateLocked() error {
	if e.buf != nil && e.buf.used > 0 {
		if err := e.flushLocked(); err != nil {
			return err
		}
	}
	next, err := e.dir.rotate(e.active, int64(e.cfg.segmentSize), e.cfg.logger)
	if err != nil {
		return newError(IoError, err)
	}
	e.active = next
	return nil
}

// startRead is the read() operation: valid only from Idle, transitions to
// Reading, and returns a snapshot of segment paths to iterate.
func (e *engine) startRead() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == modeWriting {
		return nil, ErrAlreadyInWriteMode
	}
	e.mode = modeReading
	return e.dir.orderedSegmentPaths(), nil
}

// endRead returns the engine to Idle once the read iterator is exhausted
// or closed early.
func (e *engine) endRead() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == modeReading {
		e.mode = modeIdle
	}
}

func (e *engine) runAutoFlush() {
	defer close(e.flusherDone)
	ticker := time.NewTicker(defaultFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.mu.Lock()
			if e.mode == modeWriting && e.buf != nil && e.buf.used > 0 {
				if err := e.flushLocked(); err != nil {
					e.cfg.logger.Warn("background auto-flush failed", zap.Error(err))
				}
			}
			e.mu.Unlock()
		case <-e.flusherStop:
			return
		}
	}
}

// close stops the background flusher and releases the active segment's
// file handle (and with it, its advisory lock). It does not flush;
// callers that need durability must call flush() first.
func (e *engine) close() error {
	if e.flusherStop != nil {
		close(e.flusherStop)
		<-e.flusherDone
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil && e.active.f != nil && !e.active.sealed {
		return e.active.f.Close()
	}
	return nil
}
