package wal

import "testing"

func Test_BuildConfig_Defaults(t *testing.T) {
	cfg, err := buildConfig(WithLocation("/tmp/somewhere"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.bufferSize != Size(defaultBufferSize) {
		t.Fatalf("bufferSize = %v, want default", cfg.bufferSize)
	}
	if cfg.segmentSize != Size(defaultSegmentSize) {
		t.Fatalf("segmentSize = %v, want default", cfg.segmentSize)
	}
	if cfg.storageSize != 0 {
		t.Fatalf("storageSize = %v, want 0 (unbounded)", cfg.storageSize)
	}
	if cfg.fsync {
		t.Fatal("fsync should default to disabled")
	}
}

func Test_BuildConfig_DisableBuffer(t *testing.T) {
	cfg, err := buildConfig(WithLocation("/tmp/somewhere"), DisableBuffer())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.bufferSize != 0 {
		t.Fatalf("bufferSize = %v, want 0", cfg.bufferSize)
	}
}

func Test_BuildConfig_MissingLocation(t *testing.T) {
	_, err := buildConfig()
	if err == nil {
		t.Fatal("expected error for missing location")
	}
	walErr, ok := err.(*Error)
	if !ok || walErr.Kind != ConfigInvalid {
		t.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func Test_BuildConfig_ZeroSegmentSize(t *testing.T) {
	_, err := buildConfig(WithLocation("/tmp/somewhere"), WithSegmentSize(0))
	if err == nil {
		t.Fatal("expected error for zero segment size")
	}
}

func Test_Size_Constructors(t *testing.T) {
	if KB(1).Bytes() != 1000 {
		t.Fatalf("KB(1) = %d, want 1000", KB(1).Bytes())
	}
	if MB(1).Bytes() != 1000*1000 {
		t.Fatalf("MB(1) = %d, want %d", MB(1).Bytes(), 1000*1000)
	}
	if GB(1).Bytes() != 1000*1000*1000 {
		t.Fatalf("GB(1) = %d, want %d", GB(1).Bytes(), 1000*1000*1000)
	}
}
