package wal

import (
	"path/filepath"
	"testing"
)

func BenchmarkWrite_100B_Batch1(b *testing.B)    { benchmarkWrite(b, 100, 1) }
func BenchmarkWrite_100B_Batch10(b *testing.B)   { benchmarkWrite(b, 100, 10) }
func BenchmarkWrite_100B_Batch100(b *testing.B)  { benchmarkWrite(b, 100, 100) }
func BenchmarkWrite_1000B_Batch1(b *testing.B)   { benchmarkWrite(b, 1000, 1) }
func BenchmarkWrite_1000B_Batch10(b *testing.B)  { benchmarkWrite(b, 1000, 10) }
func BenchmarkWrite_1000B_Batch100(b *testing.B) { benchmarkWrite(b, 1000, 100) }

func benchmarkWrite(b *testing.B, nBytes int, batch int) {
	dir := filepath.Join(b.TempDir(), b.Name())
	w, err := Open[[]byte](rawCodec{}, WithLocation(dir), WithSegmentSize(MB(64)))
	if err != nil {
		b.Fatal(err)
	}
	defer w.Close()

	data := make([]byte, nBytes)
	b.SetBytes(int64(frameSize(len(data))))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.Write(data); err != nil {
			b.Fatal(err)
		}
		if i%batch == batch-1 {
			if err := w.Flush(); err != nil {
				b.Fatal(err)
			}
		}
	}
}
