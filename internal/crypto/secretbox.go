package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"securebeam.eu/securebeam/internal/werr"
)

const (
	// NonceSize is the length in bytes of a SecretBox nonce.
	NonceSize = 24
	// TagSize is the length in bytes of the Poly1305 authentication tag
	// appended to every sealed message.
	TagSize = 16
	// MaxFrameSize is the largest sealed frame the wire format allows,
	// including the nonce and tag.
	MaxFrameSize = 10 << 20 // 10 MiB
)

// Seal encrypts plaintext under key with a fresh random nonce and returns
// nonce‖ciphertext‖tag.
func Seal(key [KeySize]byte, plaintext []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, werr.Wrap(werr.Crypto, "could not generate nonce", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &key), nil
}

// Open decrypts a nonce‖ciphertext‖tag blob produced by Seal. It returns a
// generic error without indicating which check failed, per the spec's
// requirement that decryption failures not leak details.
func Open(key [KeySize]byte, sealed []byte) ([]byte, error) {
	if len(sealed) < NonceSize+TagSize {
		return nil, werr.New(werr.Crypto, "decryption failed")
	}
	var nonce [NonceSize]byte
	copy(nonce[:], sealed[:NonceSize])
	out, ok := secretbox.Open(nil, sealed[NonceSize:], &nonce, &key)
	if !ok {
		return nil, werr.New(werr.Crypto, "decryption failed")
	}
	return out, nil
}

// WriteFrame seals plaintext and writes it to w as a 4-byte big-endian
// length prefix followed by the sealed blob, then flushes if w supports
// it. An empty plaintext is a valid frame: it is the in-band end-of-body
// marker used by the streaming transfer protocol.
func WriteFrame(w io.Writer, key [KeySize]byte, plaintext []byte) error {
	sealed, err := Seal(key, plaintext)
	if err != nil {
		return err
	}
	if len(sealed) > MaxFrameSize {
		return werr.New(werr.Protocol, "frame too large to send")
	}
	var lenbuf [4]byte
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(sealed)))
	if _, err := w.Write(lenbuf[:]); err != nil {
		return werr.Wrap(werr.Connection, "write frame length", err)
	}
	if _, err := w.Write(sealed); err != nil {
		return werr.Wrap(werr.Connection, "write frame body", err)
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return werr.Wrap(werr.Connection, "flush frame", err)
		}
	}
	return nil
}

// ReadFrame reads one length-prefixed sealed frame from r and returns the
// opened plaintext. It rejects any declared length over MaxFrameSize
// before reading the body.
func ReadFrame(r io.Reader, key [KeySize]byte) ([]byte, error) {
	var lenbuf [4]byte
	if _, err := io.ReadFull(r, lenbuf[:]); err != nil {
		return nil, werr.Wrap(werr.Connection, "read frame length", err)
	}
	n := binary.BigEndian.Uint32(lenbuf[:])
	if n > MaxFrameSize {
		return nil, werr.New(werr.Protocol, "frame exceeds maximum size")
	}
	sealed := make([]byte, n)
	if _, err := io.ReadFull(r, sealed); err != nil {
		return nil, werr.Wrap(werr.Connection, "read frame body", err)
	}
	return Open(key, sealed)
}
