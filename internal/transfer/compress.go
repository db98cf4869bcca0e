package transfer

import (
	"bytes"
	"compress/gzip"
	"io"
	"path/filepath"
	"strings"

	"securebeam.eu/securebeam/internal/werr"
)

// compressedExtensions already carry their own compression (images, audio,
// video, archives, office documents) so SecureBeam ships them uncompressed
// rather than spend CPU for no size benefit.
var compressedExtensions = map[string]bool{
	"zip": true, "gz": true, "bz2": true, "xz": true, "7z": true, "rar": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "avif": true,
	"mp3": true, "mp4": true, "mkv": true, "avi": true, "mov": true, "webm": true,
	"pdf": true, "docx": true, "xlsx": true, "pptx": true,
}

// ShouldCompress reports whether a file with the given name should be
// gzipped before sending, based on its extension. Files with no extension,
// or an extension outside the known-already-compressed set, are
// compressed by default.
func ShouldCompress(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return true
	}
	return !compressedExtensions[ext]
}

// Compress gzips data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, werr.Wrap(werr.Transfer, "gzip compression failed", err)
	}
	if err := w.Close(); err != nil {
		return nil, werr.Wrap(werr.Transfer, "gzip compression failed", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, werr.Wrap(werr.Transfer, "gzip decompression failed", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, werr.Wrap(werr.Transfer, "gzip decompression failed", err)
	}
	return out, nil
}
