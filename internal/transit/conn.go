package transit

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"

	"securebeam.eu/securebeam/internal/crypto"
	"securebeam.eu/securebeam/internal/werr"
)

// Conn wraps a dialed transit connection with SecretBox framing, so callers
// exchange plaintext chunks while every byte on the wire is sealed.
type Conn struct {
	net.Conn
	key [crypto.KeySize]byte

	bytesSent int64
	bytesRecv int64

	gotFirstFrame atomic.Bool
}

func newConn(c net.Conn, transitKey []byte) *Conn {
	var key [crypto.KeySize]byte
	copy(key[:], transitKey)
	return &Conn{Conn: c, key: key}
}

// Send seals and frames plaintext onto the connection. An empty plaintext
// is the in-band end-of-body marker.
func (c *Conn) Send(plaintext []byte) error {
	if err := crypto.WriteFrame(c.Conn, c.key, plaintext); err != nil {
		return err
	}
	atomic.AddInt64(&c.bytesSent, int64(len(plaintext)))
	return nil
}

// Receive reads and opens the next frame. A crypto failure on the first
// frame of a connection is the session's signal of a code/PAKE mismatch,
// so it is additionally tagged with werr.ErrWrongCode; a crypto failure on
// a later frame surfaces as the plain crypto error. A read that hits
// io.EOF or io.ErrUnexpectedEOF, on any frame, is tagged with
// werr.ErrPeerDisconnected.
func (c *Conn) Receive() ([]byte, error) {
	pt, err := crypto.ReadFrame(c.Conn, c.key)
	if err != nil {
		first := !c.gotFirstFrame.Swap(true)
		if first && werr.Is(err, werr.Crypto) {
			return nil, fmt.Errorf("%w: %w", werr.ErrWrongCode, err)
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %w", werr.ErrPeerDisconnected, err)
		}
		return nil, err
	}
	c.gotFirstFrame.Store(true)
	atomic.AddInt64(&c.bytesRecv, int64(len(pt)))
	return pt, nil
}

// BytesSent returns the cumulative plaintext bytes handed to Send.
func (c *Conn) BytesSent() int64 { return atomic.LoadInt64(&c.bytesSent) }

// BytesReceived returns the cumulative plaintext bytes returned by Receive.
func (c *Conn) BytesReceived() int64 { return atomic.LoadInt64(&c.bytesRecv) }
