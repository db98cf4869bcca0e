package transfer

import (
	"bytes"
	"testing"
)

func TestShouldCompress(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"notes.txt", true},
		{"data.json", true},
		{"main.go", true},
		{"noext", true},
		{"photo.jpg", false},
		{"archive.zip", false},
		{"movie.mp4", false},
		{"PHOTO.JPG", false},
	}
	for _, c := range cases {
		if got := ShouldCompress(c.name); got != c.want {
			t.Errorf("ShouldCompress(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 100)
	compressed, err := Compress(original)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	decompressed, err := Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(decompressed, original) {
		t.Fatal("round trip did not preserve content")
	}
}
