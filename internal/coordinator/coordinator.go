// Package coordinator implements the control-plane service: file
// placement metadata, exclusive file locks with lease expiry, and
// primary election among redundant coordinator replicas.
//
// Each replica owns its own tables; they are not replicated between
// replicas. Failing over to another replica therefore loses in-flight
// locks and registrations until clients and nodes re-register.
package coordinator

import (
	"log/slog"
	"sync"
	"time"

	"go-dfs/internal/election"
	"go-dfs/internal/transport"
)

// Config configures one coordinator replica.
type Config struct {
	// Addr is the listen address, also this replica's election identifier.
	Addr string
	// Peers are the other election candidates (replica coordinators and
	// fallback-capable storage nodes).
	Peers []string

	// LeaseDuration is how long an acquired lock lives without renewal.
	// Defaults to 30s.
	LeaseDuration time.Duration
	// SweepInterval is how often expired locks are collected. Expiry may
	// lag by up to this interval. Defaults to 5s.
	SweepInterval time.Duration
	// ProbeInterval and PeerTimeout tune the election unit.
	ProbeInterval time.Duration
	PeerTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.LeaseDuration <= 0 {
		c.LeaseDuration = 30 * time.Second
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Second
	}
	return c
}

// Coordinator composes the lock manager, metadata store and election
// unit behind one request handler. All per-request state lives in those
// components; the handler itself is stateless.
type Coordinator struct {
	cfg     Config
	locks   *LockManager
	meta    *MetadataStore
	elector *election.Elector
	server  *transport.Server

	stopSweep chan struct{}
	wg        sync.WaitGroup
}

// New creates a coordinator replica. Start brings it online.
func New(cfg Config) *Coordinator {
	cfg = cfg.withDefaults()

	c := &Coordinator{
		cfg:       cfg,
		locks:     NewLockManager(cfg.LeaseDuration),
		meta:      NewMetadataStore(),
		stopSweep: make(chan struct{}),
	}
	c.server = transport.NewServer(cfg.Addr, c)
	return c
}

// Start binds the listener, joins the election and begins the lock
// sweep loop.
func (c *Coordinator) Start() error {
	if err := c.server.Listen(); err != nil {
		return err
	}

	elector, err := election.New(election.Config{
		SelfAddr:      c.server.Addr(),
		Peers:         c.cfg.Peers,
		ProbeInterval: c.cfg.ProbeInterval,
		PeerTimeout:   c.cfg.PeerTimeout,
	})
	if err != nil {
		c.server.Close()
		return err
	}
	c.elector = elector

	c.server.Serve()
	c.elector.Start()

	c.wg.Add(1)
	go c.sweepLoop()

	slog.Info("coordinator started", "addr", c.server.Addr(), "peers", c.cfg.Peers,
		"lease", c.cfg.LeaseDuration, "sweep", c.cfg.SweepInterval)
	return nil
}

// Addr returns the bound listen address.
func (c *Coordinator) Addr() string {
	return c.server.Addr()
}

// IsPrimary reports whether this replica currently believes it is the
// primary coordinator.
func (c *Coordinator) IsPrimary() bool {
	return c.elector != nil && c.elector.IsPrimary()
}

// Close stops the background loops and the listener.
func (c *Coordinator) Close() {
	select {
	case <-c.stopSweep:
	default:
		close(c.stopSweep)
	}
	if c.elector != nil {
		c.elector.Stop()
	}
	c.server.Close()
	c.wg.Wait()
}

func (c *Coordinator) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopSweep:
			return
		case <-ticker.C:
			c.locks.Sweep(time.Now())
		}
	}
}

// Handle dispatches one request by its command tag. Every outcome,
// including denial and malformed input, is reported as a response
// value; nothing escapes the request boundary.
func (c *Coordinator) Handle(req transport.Request) transport.Response {
	switch req.Cmd {
	case transport.CmdRegisterNode:
		if req.NodeAddr == "" {
			return transport.InvalidCommand()
		}
		c.meta.RegisterNode(NodeInfo{
			Addr:      req.NodeAddr,
			BuildID:   req.BuildID,
			BuildTime: req.BuildTime,
		})
		return transport.Response{Status: transport.StatusOK}

	case transport.CmdGetNodes:
		return transport.Response{Nodes: c.meta.ListNodes()}

	case transport.CmdAddFile:
		if req.Filename == "" || len(req.Nodes) == 0 {
			return transport.InvalidCommand()
		}
		c.meta.RegisterFile(req.Filename, req.Nodes)
		return transport.Response{Status: transport.StatusFileRegistered}

	case transport.CmdGetFileNodes:
		if req.Filename == "" {
			return transport.InvalidCommand()
		}
		nodes, ok := c.meta.ResolveFile(req.Filename)
		if !ok {
			return transport.Response{Error: transport.ErrFileNotFound}
		}
		return transport.Response{Nodes: nodes}

	case transport.CmdLock:
		if req.Filename == "" || req.ClientID == "" {
			return transport.InvalidCommand()
		}
		if c.locks.Acquire(req.Filename, req.ClientID) {
			return transport.Response{Status: transport.StatusLockAcquired}
		}
		return transport.Response{Status: transport.StatusLockDenied}

	case transport.CmdUnlock:
		if req.Filename == "" || req.ClientID == "" {
			return transport.InvalidCommand()
		}
		if c.locks.Release(req.Filename, req.ClientID) {
			return transport.Response{Status: transport.StatusUnlocked}
		}
		return transport.Response{Status: transport.StatusNotYourLock}

	case transport.CmdElection:
		return c.elector.HandleElection(req.SenderID)

	case transport.CmdCoordinator:
		return c.elector.HandleCoordinator(req.NewPrimary)

	case transport.CmdHeartbeatCheck:
		return c.elector.HandleHeartbeat()

	default:
		return transport.InvalidCommand()
	}
}
