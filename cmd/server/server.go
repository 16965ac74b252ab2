package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"garm/internal/common"
	"garm/internal/engine"
	"garm/internal/net"
)

func main() {
	address := flag.String("address", "0.0.0.0", "Listen address")
	port := flag.Int("port", 9001, "Listen port")
	pretty := flag.Bool("pretty", false, "Human readable log output")
	flag.Parse()

	if *pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Setup the TCP gateway and the matching engine.
	eng := engine.New(common.Equities)
	srv := net.New(*address, *port, eng)
	eng.SetReporter(srv)

	go srv.Run(ctx)
	// Block on running the server.
	<-ctx.Done()
}
