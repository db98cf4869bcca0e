package main

// This is the mailbox rendezvous server: it relays PAKE and transit hint
// messages between the two sides of a wormhole so they never need a
// direct connection of their own to agree on a code or a transit address.

import (
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/acme/autocert"

	"securebeam.eu/securebeam/internal/mailbox"
)

const importMeta = `<!doctype html>
<meta charset=utf-8>
<meta name="go-import" content="securebeam.eu/securebeam git https://github.com/securebeam/securebeam">
<meta http-equiv="refresh" content="0;URL='https://github.com/securebeam/securebeam'">
`

func server(args ...string) {
	set := flag.NewFlagSet(args[0], flag.ExitOnError)
	set.Usage = func() {
		fmt.Fprintf(set.Output(), "run the mailbox rendezvous server\n\n")
		fmt.Fprintf(set.Output(), "usage: %s %s\n\n", os.Args[0], args[0])
		fmt.Fprintf(set.Output(), "flags:\n")
		set.PrintDefaults()
	}
	httpaddr := set.String("http", ":http", "http listen address")
	httpsaddr := set.String("https", "", "https listen address, leave empty to disable TLS")
	whitelist := set.String("hosts", "", "comma separated list of hosts for which to request let's encrypt certs")
	secretpath := set.String("secrets", os.Getenv("HOME")+"/keys", "path to put let's encrypt cache")
	ttl := set.Duration("ttl", 5*time.Minute, "how long after creation a nameplate or mailbox expires")
	set.Parse(args[1:])

	reg := prometheus.NewRegistry()
	metrics := mailbox.NewMetrics(reg)
	mboxsrv := mailbox.NewServer(*ttl, metrics)

	go func() {
		for range time.Tick(mailbox.ExpirySweepInterval) {
			mboxsrv.Sweep()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/v1", mboxsrv)

	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("go-get") == "1" || r.URL.Path == "/cmd/securebeam" {
			w.Write([]byte(importMeta))
			return
		}
		mux.ServeHTTP(w, r)
	}

	gz := gziphandler.GzipHandler(http.HandlerFunc(handler))

	if *httpsaddr == "" {
		log.Fatal(http.ListenAndServe(*httpaddr, gz))
	}

	m := &autocert.Manager{
		Cache:      autocert.DirCache(*secretpath),
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(strings.Split(*whitelist, ",")...),
	}
	ssrv := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Minute,
		IdleTimeout:  20 * time.Second,
		Addr:         *httpsaddr,
		Handler:      gz,
		TLSConfig:    &tls.Config{GetCertificate: m.GetCertificate},
	}
	srv := &http.Server{
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Minute,
		IdleTimeout:  20 * time.Second,
		Addr:         *httpaddr,
		Handler:      m.HTTPHandler(gz),
	}

	go func() { log.Fatal(ssrv.ListenAndServeTLS("", "")) }()
	log.Fatal(srv.ListenAndServe())
}
