package transfer

import (
	"io"

	"securebeam.eu/securebeam/internal/crypto"
	"securebeam.eu/securebeam/internal/werr"
)

// SendBody streams all of r as a sequence of SecretBox frames of up to
// DefaultChunkSize bytes each, followed by one empty frame marking the
// end of the body. total is the expected size, used only for progress
// reporting.
func SendBody(w io.Writer, key [crypto.KeySize]byte, r io.Reader, total int64, progress ProgressFunc) error {
	tracker := newProgressTracker(total, progress)
	buf := make([]byte, DefaultChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if err := crypto.WriteFrame(w, key, buf[:n]); err != nil {
				return err
			}
			tracker.add(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return werr.Wrap(werr.Io, "could not read body to send", err)
		}
	}
	return crypto.WriteFrame(w, key, nil)
}

// ReceiveBody reads SecretBox frames from r until the empty end-of-body
// marker, writing each chunk to w. It enforces the hard transfer size cap
// and the small overrun tolerance described in §4.6.7.
func ReceiveBody(r io.Reader, key [crypto.KeySize]byte, w io.Writer, expectedSize int64, progress ProgressFunc) (int64, error) {
	tracker := newProgressTracker(expectedSize, progress)
	var received int64
	for {
		chunk, err := crypto.ReadFrame(r, key)
		if err != nil {
			return received, err
		}
		if len(chunk) == 0 {
			break
		}
		received += int64(len(chunk))
		if received > MaxTransferSize {
			return received, werr.New(werr.Transfer, "transfer exceeds maximum size")
		}
		if received > expectedSize+DefaultChunkSize {
			return received, werr.New(werr.Transfer, "received more data than offered")
		}
		if _, err := w.Write(chunk); err != nil {
			return received, werr.Wrap(werr.Io, "could not write received body", err)
		}
		tracker.add(len(chunk))
	}
	return received, nil
}
