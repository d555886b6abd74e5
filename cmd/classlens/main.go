// Package main is the entry point for the classlens language server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/dshills/classlens/internal/server"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	showVersion := flag.Bool("version", false, "print version and exit")
	logFile := flag.String("log-file", "", "write logs to file instead of stderr")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("classlens %s (%s)\n", version, commit)
		return 0
	}

	// stdout carries the protocol; logs go to stderr or a file.
	logOut := os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open log file: %v\n", err)
			return 1
		}
		defer f.Close()
		logOut = f
	}

	logger := log.NewWithOptions(logOut, log.Options{
		ReportTimestamp: true,
		Prefix:          "classlens",
	})
	if level, err := log.ParseLevel(*logLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()

	srv := server.New(os.Stdin, os.Stdout, version, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", "err", err)
		return 1
	}
	return 0
}
