// Command securebeam sends and receives files over an ephemeral,
// end-to-end encrypted wormhole, and runs the mailbox and transit relay
// servers that broker those wormholes.
package main

import (
	"flag"
	"fmt"
	"os"
)

const (
	defaultMailboxURL = "wss://mailbox.securebeam.eu/v1"
	defaultRelayURL   = "tcp://relay.securebeam.eu:4001"
)

var subcmds = map[string]func(args ...string){
	"send":    send,
	"receive": receive,
	"server":  server,
	"relay":   relay,
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "securebeam moves files through an ephemeral, end-to-end encrypted wormhole.\n\n")
	fmt.Fprintf(w, "usage:\n\n")
	fmt.Fprintf(w, "  %s <command> [arguments]\n\n", os.Args[0])
	fmt.Fprintf(w, "commands:\n")
	for _, name := range []string{"send", "receive", "server", "relay"} {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := subcmds[flag.Arg(0)]
	if !ok {
		usage()
		os.Exit(2)
	}
	cmd(flag.Args()...)
}

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(flag.CommandLine.Output(), format+"\n", v...)
	os.Exit(1)
}
