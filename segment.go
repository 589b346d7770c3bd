package wal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

const (
	// privateFileMode grants owner read/write to a segment file.
	privateFileMode = 0600
	// privateDirMode grants owner read/write/execute to the WAL directory.
	privateDirMode = 0700
	// segExt is the segment file extension.
	segExt = ".log"
	// segPrefix is the segment file prefix.
	segPrefix = "wal-"
)

var segNameRE = regexp.MustCompile(`^` + segPrefix + `(\d{20})` + segExt + `$`)

// segmentName formats the on-disk file name for a segment id:
// "wal-<segment_id>.log", segment_id zero-padded decimal.
func segmentName(id uint64) string {
	return fmt.Sprintf("%s%020d%s", segPrefix, id, segExt)
}

func segmentPath(dir string, id uint64) string {
	return filepath.Join(dir, segmentName(id))
}

// parseSegmentID extracts the segment id from a file name matching the
// naming scheme. Files not matching the pattern are reported via ok=false
// and must be ignored by the caller, not treated as an error.
func parseSegmentID(name string) (id uint64, ok bool) {
	m := segNameRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// segmentMeta is the segment directory's bookkeeping record for one
// segment file: its id, path, and byte length.
type segmentMeta struct {
	id   uint64
	path string
	size int64
}

// segmentFile is one open, append-only segment. It tracks a logical
// length distinct from the file's physical size, since the file may be
// preallocated beyond its logical content.
type segmentFile struct {
	id     uint64
	path   string
	f      *os.File
	length int64
	sealed bool
}

// createSegment creates a brand-new, empty segment file at id and
// preallocates sizeHint bytes of backing space.
func createSegment(dir string, id uint64, sizeHint int64) (*segmentFile, error) {
	path := segmentPath(dir, id)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, privateFileMode)
	if err != nil {
		return nil, err
	}
	if err := lockFileNonBlocking(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := preallocate(f, sizeHint); err != nil {
		f.Close()
		return nil, err
	}
	return &segmentFile{id: id, path: path, f: f}, nil
}

// openActiveSegment reopens an existing segment file for append, scanning
// it for a torn tail (left by a crash before the last frame finished
// writing) and truncating it away so appends resume at the last complete
// frame.
func openActiveSegment(dir string, id uint64, sizeHint int64, logger *zap.Logger) (*segmentFile, error) {
	path := segmentPath(dir, id)
	f, err := os.OpenFile(path, os.O_RDWR, privateFileMode)
	if err != nil {
		return nil, err
	}
	if err := lockFileNonBlocking(f); err != nil {
		f.Close()
		return nil, err
	}

	validLength, err := scanValidLength(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if validLength < stat.Size() {
		logger.Warn("truncating torn tail on reopen",
			zap.String("path", path),
			zap.Int64("from", stat.Size()),
			zap.Int64("to", validLength))
		if err := f.Truncate(validLength); err != nil {
			f.Close()
			return nil, err
		}
	}

	if err := preallocate(f, sizeHint); err != nil {
		f.Close()
		return nil, err
	}

	return &segmentFile{id: id, path: path, f: f, length: validLength}, nil
}

// scanValidLength reads frames from the start of f and returns the byte
// offset just past the last fully-present frame.
func scanValidLength(f *os.File) (int64, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return 0, err
	}
	br := bufio.NewReaderSize(f, readChunkSize)
	var offset int64
	for {
		payload, err := decodeFrame(br)
		if err != nil {
			break
		}
		offset += int64(frameSize(len(payload)))
	}
	return offset, nil
}

// appendFrame writes frame at the segment's current logical length.
func (s *segmentFile) appendFrame(frame []byte) error {
	n, err := s.f.WriteAt(frame, s.length)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("short write: wrote %d of %d bytes", n, len(frame))
	}
	s.length += int64(n)
	return nil
}

func (s *segmentFile) fsync() error {
	return fsync(s.f)
}

// seal truncates away any preallocated slack, fsyncs, and marks the
// segment immutable. The file handle is closed; sealed segments are only
// ever reopened read-only by the iterator.
func (s *segmentFile) seal() error {
	if err := s.f.Truncate(s.length); err != nil {
		return err
	}
	if err := fsync(s.f); err != nil {
		return err
	}
	s.sealed = true
	return s.f.Close()
}

// segmentDirectory discovers, orders, creates, and retires segment files,
// and enforces the storage cap.
type segmentDirectory struct {
	dir      string
	segments []segmentMeta // ascending by id; last entry is the active one
}

// openSegmentDirectory scans dir for segment files, ignoring any entry
// whose name doesn't match the naming scheme.
func openSegmentDirectory(dir string) (*segmentDirectory, error) {
	if err := os.MkdirAll(dir, privateDirMode); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var metas []segmentMeta
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := parseSegmentID(e.Name())
		if !ok {
			continue // malformed name: ignore
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		metas = append(metas, segmentMeta{id: id, path: filepath.Join(dir, e.Name()), size: info.Size()})
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].id < metas[j].id })

	return &segmentDirectory{dir: dir, segments: metas}, nil
}

// activeForAppend opens (or creates) the highest-id segment for append.
func (d *segmentDirectory) activeForAppend(sizeHint int64, logger *zap.Logger) (*segmentFile, error) {
	if len(d.segments) == 0 {
		seg, err := createSegment(d.dir, 0, sizeHint)
		if err != nil {
			return nil, err
		}
		d.segments = append(d.segments, segmentMeta{id: seg.id, path: seg.path, size: 0})
		return seg, nil
	}

	last := d.segments[len(d.segments)-1]
	seg, err := openActiveSegment(d.dir, last.id, sizeHint, logger)
	if err != nil {
		return nil, err
	}
	d.segments[len(d.segments)-1].size = seg.length
	return seg, nil
}

// rotate seals active and opens the next segment.
func (d *segmentDirectory) rotate(active *segmentFile, sizeHint int64, logger *zap.Logger) (*segmentFile, error) {
	if err := active.seal(); err != nil {
		return nil, err
	}
	d.segments[len(d.segments)-1].size = active.length

	nextID := active.id + 1
	next, err := createSegment(d.dir, nextID, sizeHint)
	if err != nil {
		return nil, err
	}
	d.segments = append(d.segments, segmentMeta{id: next.id, path: next.path, size: 0})
	logger.Info("rotated segment", zap.Uint64("sealed_id", active.id), zap.Uint64("active_id", next.id))
	return next, nil
}

// totalSize sums every known segment's byte length, including the active
// segment's current logical length (kept in sync by the caller).
func (d *segmentDirectory) totalSize() int64 {
	var total int64
	for _, m := range d.segments {
		total += m.size
	}
	return total
}

// setActiveSize updates the bookkeeping entry for the active segment; the
// caller is responsible for keeping this current after every append.
func (d *segmentDirectory) setActiveSize(id uint64, size int64) {
	if len(d.segments) == 0 {
		return
	}
	last := &d.segments[len(d.segments)-1]
	if last.id == id {
		last.size = size
	}
}

// retireUntilWithinCap deletes the oldest sealed segments, oldest first,
// until the total size is within cap or only the active segment remains.
// It never deletes activeID. Deletion failures are best-effort: logged,
// not returned, so a retention hiccup never fails the write that triggered
// it.
func (d *segmentDirectory) retireUntilWithinCap(cap int64, activeID uint64, logger *zap.Logger) {
	total := d.totalSize()
	for total > cap && len(d.segments) > 1 {
		oldest := d.segments[0]
		if oldest.id == activeID {
			break
		}
		if err := os.Remove(oldest.path); err != nil {
			logger.Error("failed to retire segment", zap.Uint64("segment_id", oldest.id), zap.Error(err))
			break
		}
		total -= oldest.size
		d.segments = d.segments[1:]
		logger.Info("retired segment", zap.Uint64("segment_id", oldest.id))
	}
}

// orderedSegmentPaths returns a snapshot of segment paths in chronological
// (ascending id) order, for the read iterator.
func (d *segmentDirectory) orderedSegmentPaths() []string {
	paths := make([]string, len(d.segments))
	for i, m := range d.segments {
		paths[i] = m.path
	}
	return paths
}
