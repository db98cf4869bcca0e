package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"securebeam.eu/securebeam/internal/transfer"
	"securebeam.eu/securebeam/wormhole"
)

func progressPrinter(out *os.File, name string) transfer.ProgressFunc {
	return func(p transfer.Progress) {
		fmt.Fprintf(out, "\r%s: %5.1f%%", name, p.Percentage())
		if p.IsComplete() {
			fmt.Fprintf(out, "\n")
		}
	}
}

func send(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "send a file or directory\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s [flags] <path>\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	mailbox := set.String("mailbox", defaultMailboxURL, "mailbox server to use")
	relayAddr := set.String("relay", defaultRelayURL, "transit relay to fall back to")
	code := set.String("code", "", "use a wormhole code instead of generating one")
	set.Parse(args[1:])

	if set.NArg() != 1 {
		set.Usage()
		os.Exit(2)
	}
	path := set.Arg(0)

	opts := wormhole.Options{
		MailboxURL: *mailbox,
		RelayURL:   *relayAddr,
		Progress:   progressPrinter(os.Stdout, filepath.Base(filepath.Clean(path))),
	}
	codeReady := make(chan string, 1)
	go func() {
		c, ok := <-codeReady
		if ok {
			printcode(*mailbox, c)
		}
	}()

	result, err := wormhole.Send(context.Background(), opts, path, *code, codeReady)
	if err != nil {
		fatalf("could not send %s: %v", path, err)
	}
	fmt.Fprintf(os.Stdout, "sent %s (%d bytes)\n", result.Offer.Name(), result.BytesSent)
}
