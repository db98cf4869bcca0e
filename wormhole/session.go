// Package wormhole implements the peer-to-peer half of a file transfer: it
// drives a mailbox server to agree on a code with the other side, runs the
// PAKE and transit handshakes, and streams an offer's body over the
// resulting encrypted transit connection.
package wormhole

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"securebeam.eu/securebeam/internal/crypto"
	"securebeam.eu/securebeam/internal/transfer"
	"securebeam.eu/securebeam/internal/transit"
	"securebeam.eu/securebeam/internal/werr"
)

// listenDirect opens a TCP listener on an ephemeral port for the direct-hint
// race in transit.Establish, and returns hints advertising it alongside the
// listener itself. A failure to listen (e.g. a sandboxed network namespace)
// is not fatal: the session falls back to relay-only hints.
func listenDirect() (net.Listener, transit.Hints) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, transit.Hints{}
	}
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		ln.Close()
		return nil, transit.Hints{}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 0xffff {
		ln.Close()
		return nil, transit.Hints{}
	}
	return ln, transit.LocalDirectHints(uint16(port))
}

// Options configures a Send or Receive session.
type Options struct {
	MailboxURL string
	RelayURL   string
	AppID      string
	Progress   transfer.ProgressFunc
}

func (o Options) appid() string {
	if o.AppID == "" {
		return DefaultAppID
	}
	return o.AppID
}

// SendResult reports what a completed Send transmitted.
type SendResult struct {
	Offer          transfer.Offer
	BytesSent      int64
	TransitAddress string
}

// ReceiveResult reports what a completed Receive wrote to disk.
type ReceiveResult struct {
	Offer          transfer.Offer
	Path           string
	BytesReceived  int64
	TransitAddress string
}

// Send offers the file or directory at path to whoever claims code (or,
// if code is empty, a newly allocated one announced on codeReady) and
// streams it once the peer accepts.
func Send(ctx context.Context, opts Options, path string, code string, codeReady chan<- string) (SendResult, error) {
	side, err := NewSide()
	if err != nil {
		return SendResult{}, err
	}

	rc, err := dialRendezvous(ctx, opts.MailboxURL, opts.appid(), side)
	if err != nil {
		return SendResult{}, err
	}
	defer rc.disconnect()

	if err := rc.bind(ctx); err != nil {
		return SendResult{}, err
	}

	var nameplate, password string
	if code == "" {
		nameplate, err = rc.allocate(ctx)
		if err != nil {
			return SendResult{}, err
		}
		code, err = GenerateCode(nameplate)
		if err != nil {
			return SendResult{}, err
		}
	} else {
		nameplate, err = NameplateOf(code)
		if err != nil {
			return SendResult{}, err
		}
	}
	password = code
	if codeReady != nil {
		codeReady <- code
	}

	mailboxID, err := rc.claim(ctx, nameplate)
	if err != nil {
		return SendResult{}, err
	}
	if err := rc.open(ctx, mailboxID); err != nil {
		return SendResult{}, err
	}
	defer rc.closeMailbox(ctx, mailboxID)

	sharedKey, _, err := exchangePake(ctx, rc, password)
	if err != nil {
		return SendResult{}, err
	}
	transitKey, err := crypto.DeriveTransitKey(sharedKey[:])
	if err != nil {
		return SendResult{}, err
	}

	ln, directHints := listenDirect()
	ourHints := transit.Hints{Direct: directHints.Direct, Relay: relayHints(opts.RelayURL)}
	peerHints, err := exchangeTransitHints(ctx, rc, ourHints)
	if err != nil {
		if ln != nil {
			ln.Close()
		}
		return SendResult{}, err
	}

	tconn, err := transit.Establish(ctx, transit.Sender, peerHints, transitKey[:], ln)
	if err != nil {
		return SendResult{}, err
	}
	defer tconn.Close()

	info, err := os.Stat(path)
	if err != nil {
		return SendResult{}, werr.Wrap(werr.Io, "could not stat "+path, err)
	}
	var offer transfer.Offer
	var wire []byte
	if info.IsDir() {
		offer, wire, err = transfer.PrepareDirectoryOffer(path)
	} else {
		offer, wire, err = transfer.PrepareFileOffer(path)
	}
	if err != nil {
		return SendResult{}, err
	}

	if err := sendMessage(tconn, transfer.Message{Offer: &offer}); err != nil {
		return SendResult{}, err
	}
	answerMsg, err := recvMessage(tconn)
	if err != nil {
		return SendResult{}, err
	}
	if answerMsg.Answer == nil || !answerMsg.Answer.IsAccepted() {
		return SendResult{}, werr.New(werr.Transfer, "peer rejected the offer")
	}

	if err := transfer.SendBody(tconn.Conn, transitKey, bytes.NewReader(wire), int64(len(wire)), opts.Progress); err != nil {
		return SendResult{}, err
	}

	ackMsg, err := recvMessage(tconn)
	if err != nil {
		return SendResult{}, err
	}
	if !ackMsg.Ack {
		return SendResult{}, werr.New(werr.Protocol, "peer did not acknowledge the transfer")
	}

	return SendResult{Offer: offer, BytesSent: int64(len(wire)), TransitAddress: tconn.RemoteAddr().String()}, nil
}

// Receive claims code's mailbox, accepts whatever offer arrives, and
// writes the result under destDir.
func Receive(ctx context.Context, opts Options, code string, destDir string) (ReceiveResult, error) {
	side, err := NewSide()
	if err != nil {
		return ReceiveResult{}, err
	}
	nameplate, err := NameplateOf(code)
	if err != nil {
		return ReceiveResult{}, err
	}

	rc, err := dialRendezvous(ctx, opts.MailboxURL, opts.appid(), side)
	if err != nil {
		return ReceiveResult{}, err
	}
	defer rc.disconnect()

	if err := rc.bind(ctx); err != nil {
		return ReceiveResult{}, err
	}
	mailboxID, err := rc.claim(ctx, nameplate)
	if err != nil {
		return ReceiveResult{}, err
	}
	if err := rc.open(ctx, mailboxID); err != nil {
		return ReceiveResult{}, err
	}
	defer rc.closeMailbox(ctx, mailboxID)

	sharedKey, _, err := exchangePake(ctx, rc, code)
	if err != nil {
		return ReceiveResult{}, err
	}
	transitKey, err := crypto.DeriveTransitKey(sharedKey[:])
	if err != nil {
		return ReceiveResult{}, err
	}

	ln, directHints := listenDirect()
	ourHints := transit.Hints{Direct: directHints.Direct, Relay: relayHints(opts.RelayURL)}
	peerHints, err := exchangeTransitHints(ctx, rc, ourHints)
	if err != nil {
		if ln != nil {
			ln.Close()
		}
		return ReceiveResult{}, err
	}

	tconn, err := transit.Establish(ctx, transit.Receiver, peerHints, transitKey[:], ln)
	if err != nil {
		return ReceiveResult{}, err
	}
	defer tconn.Close()

	offerMsg, err := recvMessage(tconn)
	if err != nil {
		return ReceiveResult{}, err
	}
	if offerMsg.Offer == nil {
		return ReceiveResult{}, werr.New(werr.Protocol, "expected an offer message")
	}
	offer := *offerMsg.Offer

	accept := transfer.Accept()
	if err := sendMessage(tconn, transfer.Message{Answer: &accept}); err != nil {
		return ReceiveResult{}, err
	}

	var buf bytes.Buffer
	n, err := transfer.ReceiveBody(tconn.Conn, transitKey, &buf, offer.TransferSize(), opts.Progress)
	if err != nil {
		return ReceiveResult{}, err
	}
	wire := buf.Bytes()

	var outPath string
	if offer.File != nil {
		data := wire
		if offer.File.Compressed {
			data, err = transfer.Decompress(data)
			if err != nil {
				return ReceiveResult{}, err
			}
		}
		if offer.File.Hash != nil && !transfer.VerifyHash(data, *offer.File.Hash) {
			return ReceiveResult{}, werr.New(werr.Transfer, "received file does not match its announced hash")
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return ReceiveResult{}, werr.Wrap(werr.Io, "could not create destination directory", err)
		}
		outPath = filepath.Join(destDir, offer.File.Filename)
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return ReceiveResult{}, werr.Wrap(werr.Io, "could not write received file", err)
		}
	} else if offer.Directory != nil {
		data := wire
		if offer.Directory.Compressed {
			data, err = transfer.Decompress(data)
			if err != nil {
				return ReceiveResult{}, err
			}
		}
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return ReceiveResult{}, werr.Wrap(werr.Io, "could not create destination directory", err)
		}
		if err := transfer.ExtractTarArchive(data, destDir); err != nil {
			return ReceiveResult{}, err
		}
		outPath = filepath.Join(destDir, offer.Directory.Dirname)
	} else {
		return ReceiveResult{}, werr.New(werr.Protocol, "offer had neither a file nor a directory")
	}

	if err := sendMessage(tconn, transfer.Message{Ack: true}); err != nil {
		return ReceiveResult{}, err
	}

	return ReceiveResult{Offer: offer, Path: outPath, BytesReceived: n, TransitAddress: tconn.RemoteAddr().String()}, nil
}

func sendMessage(conn *transit.Conn, msg transfer.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return werr.Wrap(werr.Protocol, "could not marshal transfer message", err)
	}
	return conn.Send(data)
}

func recvMessage(conn *transit.Conn) (transfer.Message, error) {
	data, err := conn.Receive()
	if err != nil {
		return transfer.Message{}, err
	}
	var msg transfer.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return transfer.Message{}, werr.Wrap(werr.Protocol, "malformed transfer message", err)
	}
	return msg, nil
}
