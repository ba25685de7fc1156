package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-dfs/internal/coordinator"
	"go-dfs/pkg/dfslog"
)

var (
	addr          string
	peers         string
	lease         time.Duration
	sweepInterval time.Duration
	probeInterval time.Duration
	peerTimeout   time.Duration
	logFile       string
	logSource     string
	debug         bool
)

func init() {
	flag.StringVar(&addr, "addr", "localhost:5000", "Listen address (also the election identifier)")
	flag.StringVar(&peers, "peers", "", "Comma-separated peer candidate addresses")
	flag.DurationVar(&lease, "lease", 30*time.Second, "Lock lease duration")
	flag.DurationVar(&sweepInterval, "sweep", 5*time.Second, "Expired-lock sweep interval")
	flag.DurationVar(&probeInterval, "probe", 5*time.Second, "Primary liveness probe interval")
	flag.DurationVar(&peerTimeout, "peer-timeout", time.Second, "Per-peer election message timeout")
	flag.StringVar(&logFile, "log-file", "", "Optional log file path")
	flag.StringVar(&logSource, "log-source", "coordinator", "Log source name")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger, err := dfslog.NewLogger(dfslog.Config{
		Source:   logSource,
		MinLevel: level,
		FilePath: logFile,
	})
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.Logger)
	defer logger.Close()

	var peerList []string
	if peers != "" {
		peerList = strings.Split(peers, ",")
	}

	c := coordinator.New(coordinator.Config{
		Addr:          addr,
		Peers:         peerList,
		LeaseDuration: lease,
		SweepInterval: sweepInterval,
		ProbeInterval: probeInterval,
		PeerTimeout:   peerTimeout,
	})

	if err := c.Start(); err != nil {
		slog.Error("failed to start coordinator", "error", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down coordinator")
	c.Close()
}
