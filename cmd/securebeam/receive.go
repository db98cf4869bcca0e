package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"securebeam.eu/securebeam/wormhole"
)

func receive(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "receive a file or directory\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s [flags] <code>\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	mailbox := set.String("mailbox", defaultMailboxURL, "mailbox server to use")
	relayAddr := set.String("relay", defaultRelayURL, "transit relay to fall back to")
	directory := set.String("dir", ".", "directory to put downloaded files in")
	set.Parse(args[1:])

	if set.NArg() != 1 {
		set.Usage()
		os.Exit(2)
	}
	code := set.Arg(0)

	opts := wormhole.Options{
		MailboxURL: *mailbox,
		RelayURL:   *relayAddr,
		Progress:   progressPrinter(os.Stdout, code),
	}

	result, err := wormhole.Receive(context.Background(), opts, code, *directory)
	if err != nil {
		fatalf("could not receive: %v", err)
	}
	fmt.Fprintf(os.Stdout, "received %s -> %s\n", result.Offer.Name(), result.Path)
}
