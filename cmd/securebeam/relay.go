package main

// This is the transit relay: when two peers cannot reach each other
// directly, both dial this TCP relay and present the same channel id, and
// it splices their connections together byte for byte.

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	transitrelay "securebeam.eu/securebeam/internal/relay"
)

func relay(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "run the transit relay server\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	addr := set.String("addr", ":4001", "tcp listen address")
	metricsAddr := set.String("metrics", ":4002", "http listen address for /metrics")
	set.Parse(args[1:])

	reg := prometheus.NewRegistry()
	metrics := transitrelay.NewMetrics(reg)
	srv := transitrelay.NewServer(metrics)

	go func() {
		for range time.Tick(transitrelay.PendingTimeout) {
			srv.SweepPending()
		}
	}()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		log.Fatal(http.ListenAndServe(*metricsAddr, mux))
	}()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fatalf("could not listen on %s: %v", *addr, err)
	}
	log.Fatal(srv.Serve(ln))
}
