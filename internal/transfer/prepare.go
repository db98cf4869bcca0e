package transfer

import (
	"os"
	"path/filepath"

	"securebeam.eu/securebeam/internal/werr"
)

// PrepareFileOffer reads path, computes its pre-compression SHA-256,
// decides whether to compress it based on extension, and returns the
// offer describing it plus the bytes that should actually be sent on the
// wire (compressed or not).
func PrepareFileOffer(path string) (Offer, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Offer{}, nil, werr.Wrap(werr.Io, "could not read file", err)
	}

	hash := ComputeHash(data)
	originalSize := int64(len(data))
	name := filepath.Base(path)

	wire := data
	compressed := ShouldCompress(name)
	if compressed {
		wire, err = Compress(data)
		if err != nil {
			return Offer{}, nil, err
		}
	}

	meta := FileMetadata{
		Filename:     name,
		Filesize:     int64(len(wire)),
		OriginalSize: &originalSize,
		Hash:         &hash,
		Compressed:   compressed,
	}
	return FileOffer(meta), wire, nil
}

// PrepareDirectoryOffer packs dir into a TAR archive (always gzipped) and
// returns the offer describing it plus the on-wire bytes.
func PrepareDirectoryOffer(dir string) (Offer, []byte, error) {
	archive, numFiles, numBytes, err := CreateTarArchive(dir)
	if err != nil {
		return Offer{}, nil, err
	}
	wire, err := Compress(archive)
	if err != nil {
		return Offer{}, nil, err
	}

	meta := DirectoryMetadata{
		Dirname:    filepath.Base(filepath.Clean(dir)),
		NumFiles:   numFiles,
		NumBytes:   numBytes,
		ZipSize:    int64(len(wire)),
		Compressed: true,
	}
	return DirectoryOffer(meta), wire, nil
}
