// Package transfer implements the offer/answer message envelope, the
// compression and archiving policy, and progress reporting for streaming a
// file or directory body over a transit connection.
package transfer

import (
	"encoding/json"

	"securebeam.eu/securebeam/internal/werr"
)

// DefaultChunkSize is the size of each SecretBox frame used while
// streaming a body.
const DefaultChunkSize = 64 << 10

// MaxTransferSize is the hard cap on the on-wire size of any single
// transfer.
const MaxTransferSize = 10 << 30 // 10 GiB

// MaxDirectoryFiles is the hard cap on the number of entries a directory
// offer may describe.
const MaxDirectoryFiles = 100_000

// FileMetadata describes a single-file offer.
type FileMetadata struct {
	Filename     string  `json:"filename"`
	Filesize     int64   `json:"filesize"`
	OriginalSize *int64  `json:"original_size,omitempty"`
	Hash         *string `json:"hash,omitempty"`
	Compressed   bool    `json:"compressed"`
	MimeType     *string `json:"mime_type,omitempty"`
}

// DirectoryMetadata describes a directory offer, always shipped as a
// (gzipped) TAR archive.
type DirectoryMetadata struct {
	Dirname    string `json:"dirname"`
	NumFiles   int    `json:"numfiles"`
	NumBytes   int64  `json:"numbytes"`
	ZipSize    int64  `json:"zipsize"`
	Compressed bool   `json:"compressed"`
}

// Offer is the tagged union offered by the sender: exactly one of File or
// Directory is set.
type Offer struct {
	File      *FileMetadata      `json:"file,omitempty"`
	Directory *DirectoryMetadata `json:"directory,omitempty"`
}

// FileOffer builds a File-shaped Offer.
func FileOffer(m FileMetadata) Offer { return Offer{File: &m} }

// DirectoryOffer builds a Directory-shaped Offer.
func DirectoryOffer(m DirectoryMetadata) Offer { return Offer{Directory: &m} }

// Name returns the display name of the offer, regardless of shape.
func (o Offer) Name() string {
	switch {
	case o.File != nil:
		return o.File.Filename
	case o.Directory != nil:
		return o.Directory.Dirname
	default:
		return ""
	}
}

// TransferSize returns the on-wire size described by the offer.
func (o Offer) TransferSize() int64 {
	switch {
	case o.File != nil:
		return o.File.Filesize
	case o.Directory != nil:
		return o.Directory.ZipSize
	default:
		return 0
	}
}

// IsCompressed reports whether the on-wire body is gzip-compressed.
func (o Offer) IsCompressed() bool {
	switch {
	case o.File != nil:
		return o.File.Compressed
	case o.Directory != nil:
		return o.Directory.Compressed
	default:
		return false
	}
}

// Answer is the receiver's reply to an Offer: exactly one of FileAck or
// RejectReason is set.
type Answer struct {
	FileAck      *string `json:"file_ack,omitempty"`
	RejectReason *string `json:"error,omitempty"`
}

// Accept builds an accepting Answer.
func Accept() Answer {
	ok := "ok"
	return Answer{FileAck: &ok}
}

// Reject builds a rejecting Answer carrying reason.
func Reject(reason string) Answer {
	return Answer{RejectReason: &reason}
}

// IsAccepted reports whether the receiver accepted the offer.
func (a Answer) IsAccepted() bool { return a.FileAck != nil }

// envelope is the wire shape of the tagged message union: offer, answer,
// ack, or error.
type envelope struct {
	Type    string  `json:"type"`
	Offer   *Offer  `json:"offer,omitempty"`
	Answer  *Answer `json:"answer,omitempty"`
	Message *string `json:"message,omitempty"`
}

// Message is the transit message envelope: exactly one of Offer, Answer,
// or Ack/Error is populated, mirroring §4.6.6's tagged union.
type Message struct {
	Offer        *Offer
	Answer       *Answer
	Ack          bool
	ErrorMessage *string
}

// MarshalJSON renders a Message in the {"type": "...", ...} wire shape.
func (m Message) MarshalJSON() ([]byte, error) {
	var e envelope
	switch {
	case m.Offer != nil:
		e.Type = "offer"
		e.Offer = m.Offer
	case m.Answer != nil:
		e.Type = "answer"
		e.Answer = m.Answer
	case m.Ack:
		e.Type = "ack"
	case m.ErrorMessage != nil:
		e.Type = "error"
		e.Message = m.ErrorMessage
	default:
		return nil, werr.New(werr.Protocol, "empty message has no wire representation")
	}
	return json.Marshal(e)
}

// UnmarshalJSON parses the {"type": "...", ...} wire shape back into a
// Message.
func (m *Message) UnmarshalJSON(data []byte) error {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return werr.Wrap(werr.Protocol, "malformed transit message", err)
	}
	switch e.Type {
	case "offer":
		if e.Offer == nil {
			return werr.New(werr.Protocol, "offer message missing offer field")
		}
		m.Offer = e.Offer
	case "answer":
		if e.Answer == nil {
			return werr.New(werr.Protocol, "answer message missing answer field")
		}
		m.Answer = e.Answer
	case "ack":
		m.Ack = true
	case "error":
		msg := ""
		if e.Message != nil {
			msg = *e.Message
		}
		m.ErrorMessage = &msg
	default:
		return werr.New(werr.Protocol, "unknown transit message type: "+e.Type)
	}
	return nil
}
