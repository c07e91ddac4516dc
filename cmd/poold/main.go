package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pooldex/internal/config"
	"pooldex/internal/engine"
	"pooldex/internal/index"
	"pooldex/internal/poold"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	listen := flag.String("listen", "", "listen address (tcp), overrides config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	idx, err := index.Open(cfg.Index.Root, cfg.Index.Name)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "open index: %v\nRun: poolctl init --schema <file>\n", err)
		os.Exit(1)
	}

	eng := engine.New(idx, engine.Options{
		PoolMin: cfg.Pool.Min,
		PoolMax: cfg.Pool.Max,
	})
	defer eng.Close()

	s := poold.NewServer(eng, poold.Options{Listen: cfg.Listen})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		_ = s.Close()
	}()

	if cfg.Ingest.Dir != "" {
		if _, err := s.StartIngest(cfg.Ingest.Dir); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
			_ = eng.Close()
			os.Exit(1)
		}
	}

	if err := s.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		_ = eng.Close()
		os.Exit(1)
	}
}
