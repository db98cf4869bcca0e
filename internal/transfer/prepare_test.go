package transfer

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareFileOfferCompressesAndHashes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := []byte("some text worth compressing, repeated, repeated, repeated")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	offer, wire, err := PrepareFileOffer(path)
	if err != nil {
		t.Fatalf("PrepareFileOffer: %v", err)
	}
	if offer.File == nil {
		t.Fatal("expected a file offer")
	}
	if offer.File.Filename != "notes.txt" {
		t.Fatalf("Filename = %q", offer.File.Filename)
	}
	if !offer.File.Compressed {
		t.Fatal("expected a .txt file to be compressed")
	}
	if offer.File.Hash == nil || !VerifyHash(content, *offer.File.Hash) {
		t.Fatal("hash does not verify against the original content")
	}
	if int64(len(wire)) != offer.File.Filesize {
		t.Fatalf("wire length %d != Filesize %d", len(wire), offer.File.Filesize)
	}

	got, err := Decompress(wire)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("decompressed content = %q, want %q", got, content)
	}
}

func TestPrepareFileOfferSkipsCompressionForKnownFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	content := []byte("pretend jpeg bytes")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	offer, wire, err := PrepareFileOffer(path)
	if err != nil {
		t.Fatalf("PrepareFileOffer: %v", err)
	}
	if offer.File.Compressed {
		t.Fatal("expected a .jpg file not to be compressed")
	}
	if string(wire) != string(content) {
		t.Fatalf("wire = %q, want original content unchanged", wire)
	}
}

func TestPrepareDirectoryOfferPacksAndCompresses(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bbb"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	offer, wire, err := PrepareDirectoryOffer(dir)
	if err != nil {
		t.Fatalf("PrepareDirectoryOffer: %v", err)
	}
	if offer.Directory == nil {
		t.Fatal("expected a directory offer")
	}
	if offer.Directory.NumFiles != 2 {
		t.Fatalf("NumFiles = %d, want 2", offer.Directory.NumFiles)
	}
	if !offer.Directory.Compressed {
		t.Fatal("directory offers are always compressed")
	}
	if int64(len(wire)) != offer.Directory.ZipSize {
		t.Fatalf("wire length %d != ZipSize %d", len(wire), offer.Directory.ZipSize)
	}

	archive, err := Decompress(wire)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	outDir := t.TempDir()
	if err := ExtractTarArchive(archive, outDir); err != nil {
		t.Fatalf("ExtractTarArchive: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, filepath.Base(dir), "a.txt"))
	if err != nil {
		t.Fatalf("read extracted a.txt: %v", err)
	}
	if string(got) != "aaa" {
		t.Fatalf("a.txt = %q", got)
	}
}
