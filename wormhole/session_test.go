package wormhole

import (
	"context"
	"net"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"securebeam.eu/securebeam/internal/mailbox"
	"securebeam.eu/securebeam/internal/relay"
)

func startMailbox(t *testing.T) string {
	t.Helper()
	srv := mailbox.NewServer(time.Hour, mailbox.NewMetrics(prometheus.NewRegistry()))
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/"
}

func startRelay(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := relay.NewServer(relay.NewMetrics(prometheus.NewRegistry()))
	go s.Serve(ln)
	t.Cleanup(func() { ln.Close() })
	return "tcp://" + ln.Addr().String()
}

func TestSendReceiveRoundTripsAFile(t *testing.T) {
	mailboxURL := startMailbox(t)
	relayURL := startRelay(t)

	srcDir := t.TempDir()
	dstDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "greeting.txt")
	want := []byte("hello from the other side")
	if err := os.WriteFile(srcPath, want, 0o644); err != nil {
		t.Fatalf("write source file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := Options{MailboxURL: mailboxURL, RelayURL: relayURL}
	codeReady := make(chan string, 1)

	sendErr := make(chan error, 1)
	var sendResult SendResult
	go func() {
		r, err := Send(ctx, opts, srcPath, "", codeReady)
		sendResult = r
		sendErr <- err
	}()

	var code string
	select {
	case code = <-codeReady:
	case <-ctx.Done():
		t.Fatal("timed out waiting for code")
	}

	recvErr := make(chan error, 1)
	var recvResult ReceiveResult
	go func() {
		r, err := Receive(ctx, opts, code, dstDir)
		recvResult = r
		recvErr <- err
	}()

	if err := <-sendErr; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-recvErr; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if sendResult.Offer.Name() != "greeting.txt" {
		t.Fatalf("send offer name = %q", sendResult.Offer.Name())
	}
	got, err := os.ReadFile(recvResult.Path)
	if err != nil {
		t.Fatalf("read received file: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("received content = %q, want %q", got, want)
	}
}

func TestSendReceiveRoundTripsADirectory(t *testing.T) {
	mailboxURL := startMailbox(t)
	relayURL := startRelay(t)

	srcDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcDir, "photos"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "photos", "a.txt"), []byte("aaa"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "photos", "b.txt"), []byte("bbb"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	dstDir := t.TempDir()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := Options{MailboxURL: mailboxURL, RelayURL: relayURL}
	codeReady := make(chan string, 1)

	sendErr := make(chan error, 1)
	go func() {
		_, err := Send(ctx, opts, filepath.Join(srcDir, "photos"), "", codeReady)
		sendErr <- err
	}()

	var code string
	select {
	case code = <-codeReady:
	case <-ctx.Done():
		t.Fatal("timed out waiting for code")
	}

	recvErr := make(chan error, 1)
	var recvResult ReceiveResult
	go func() {
		r, err := Receive(ctx, opts, code, dstDir)
		recvResult = r
		recvErr <- err
	}()

	if err := <-sendErr; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := <-recvErr; err != nil {
		t.Fatalf("Receive: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(recvResult.Path, "a.txt"))
	if err != nil {
		t.Fatalf("read a.txt: %v", err)
	}
	if string(got) != "aaa" {
		t.Fatalf("a.txt = %q", got)
	}
}

func TestReceiveRejectsMalformedCode(t *testing.T) {
	mailboxURL := startMailbox(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Receive(ctx, Options{MailboxURL: mailboxURL}, "not-enough", "")
	if err == nil {
		t.Fatal("expected an error for a code with too few parts")
	}
}
