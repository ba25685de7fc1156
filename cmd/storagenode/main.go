package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-dfs/internal/storagenode"
	"go-dfs/pkg/dfslog"
)

func main() {
	addr := flag.String("addr", "localhost:5001", "Listen address")
	coordinators := flag.String("coordinators", "localhost:5000", "Comma-separated coordinator addresses, preference order")
	fallback := flag.Bool("fallback", false, "Participate in primary election as a fallback candidate")
	peers := flag.String("peers", "", "Comma-separated election peer addresses (used with -fallback)")
	probeInterval := flag.Duration("probe", 5*time.Second, "Primary liveness probe interval")
	peerTimeout := flag.Duration("peer-timeout", time.Second, "Per-peer election message timeout")
	logFile := flag.String("log-file", "", "Optional log file path")
	logSource := flag.String("log-source", "storagenode", "Log source name")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger, err := dfslog.NewLogger(dfslog.Config{
		Source:   *logSource,
		MinLevel: level,
		FilePath: *logFile,
	})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.Logger)
	defer logger.Close()

	var peerList []string
	if *peers != "" {
		peerList = strings.Split(*peers, ",")
	}

	node := storagenode.New(storagenode.Config{
		Addr:          *addr,
		Coordinators:  strings.Split(*coordinators, ","),
		Fallback:      *fallback,
		Peers:         peerList,
		ProbeInterval: *probeInterval,
		PeerTimeout:   *peerTimeout,
	})

	if err := node.Start(); err != nil {
		slog.Error("failed to start storage node", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down storage node", "addr", node.Addr())
	node.Close()
}
