package wal

import "testing"

type sampleRecord struct {
	ID    int
	Name  string
	Flags []byte
}

func Test_GobCodec_RoundTrip(t *testing.T) {
	codec := GobCodec[sampleRecord]{}
	want := sampleRecord{ID: 42, Name: "hello", Flags: []byte{1, 2, 3}}

	data, err := codec.Encode(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := codec.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID || got.Name != want.Name || string(got.Flags) != string(want.Flags) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func Test_GobCodec_DecodeError(t *testing.T) {
	codec := GobCodec[sampleRecord]{}
	if _, err := codec.Decode([]byte("not a gob stream")); err == nil {
		t.Fatal("expected decode error on garbage input")
	}
}
