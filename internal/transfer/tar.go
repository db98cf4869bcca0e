package transfer

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"securebeam.eu/securebeam/internal/werr"
)

// CreateTarArchive walks dir and returns a TAR archive whose entries are
// rooted at dir's basename, along with the number of files and total
// uncompressed byte count it contains. It refuses directories with more
// than MaxDirectoryFiles entries.
func CreateTarArchive(dir string) (archive []byte, numFiles int, numBytes int64, err error) {
	base := filepath.Base(filepath.Clean(dir))
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := base
		if rel != "." {
			name = filepath.ToSlash(filepath.Join(base, rel))
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if d.IsDir() {
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		}
		if !d.Type().IsRegular() {
			// Skip symlinks, devices, and anything else non-regular; a
			// transfer only ever carries plain files and directories.
			return nil
		}
		numFiles++
		if numFiles > MaxDirectoryFiles {
			return werr.New(werr.Transfer, "directory has too many entries")
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := io.Copy(tw, f)
		if err != nil {
			return err
		}
		numBytes += n
		return nil
	})
	if walkErr != nil {
		return nil, 0, 0, werr.Wrap(werr.Transfer, "could not create tar archive", walkErr)
	}
	if err := tw.Close(); err != nil {
		return nil, 0, 0, werr.Wrap(werr.Transfer, "could not finalize tar archive", err)
	}
	return buf.Bytes(), numFiles, numBytes, nil
}

// ExtractTarArchive unpacks a TAR archive into destDir, rejecting any
// entry whose resolved path would escape destDir. The check is applied
// twice: once structurally on the entry's path components (rejecting any
// ".." or absolute entry before touching the filesystem) and once again
// on the final joined, cleaned path, so a traversal attempt never reaches
// os.OpenFile.
func ExtractTarArchive(archive []byte, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return werr.Wrap(werr.Io, "could not create destination directory", err)
	}
	destRoot, err := filepath.Abs(destDir)
	if err != nil {
		return werr.Wrap(werr.Io, "could not resolve destination directory", err)
	}

	tr := tar.NewReader(bytes.NewReader(archive))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return werr.Wrap(werr.Transfer, "corrupt tar archive", err)
		}

		if filepath.IsAbs(hdr.Name) {
			return werr.New(werr.Transfer, "path traversal attempt detected in archive")
		}
		for _, part := range strings.Split(filepath.ToSlash(hdr.Name), "/") {
			if part == ".." {
				return werr.New(werr.Transfer, "path traversal attempt detected in archive")
			}
		}

		fullPath := filepath.Join(destRoot, filepath.FromSlash(hdr.Name))
		if !isWithin(destRoot, fullPath) {
			return werr.New(werr.Transfer, "path traversal attempt detected in archive")
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(fullPath, 0o755); err != nil {
				return werr.Wrap(werr.Io, "could not create directory from archive", err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
				return werr.Wrap(werr.Io, "could not create parent directory", err)
			}
			f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
			if err != nil {
				return werr.Wrap(werr.Io, "could not create file from archive", err)
			}
			_, err = io.Copy(f, tr)
			closeErr := f.Close()
			if err != nil {
				return werr.Wrap(werr.Io, "could not write file from archive", err)
			}
			if closeErr != nil {
				return werr.Wrap(werr.Io, "could not close file from archive", closeErr)
			}
		default:
			// Skip symlinks and other special entries; SecureBeam only
			// ever packs plain files and directories.
		}
	}
}

// isWithin reports whether target, once cleaned, lies at or under root.
func isWithin(root, target string) bool {
	cleanRoot := filepath.Clean(root)
	cleanTarget := filepath.Clean(target)
	if cleanTarget == cleanRoot {
		return true
	}
	return strings.HasPrefix(cleanTarget, cleanRoot+string(filepath.Separator))
}
