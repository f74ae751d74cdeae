package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	rankcmd "github.com/kevinchn/rankboard/internal/cmd/rank"
	"github.com/kevinchn/rankboard/internal/platform/config"
)

func main() {
	cfg, err := rankcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[RANK] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rankcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
