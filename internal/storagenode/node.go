// Package storagenode implements the data-plane service: it holds file
// bytes keyed by filename, answers store/fetch requests, and registers
// itself with the primary coordinator. When configured as a fallback
// candidate it also runs the election unit so it can keep the cluster's
// primary election alive after coordinator replicas fail.
package storagenode

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-dfs/internal/buildinfo"
	"go-dfs/internal/election"
	"go-dfs/internal/transport"
)

// Config configures one storage node.
type Config struct {
	// Addr is the listen address, advertised to the coordinator.
	Addr string
	// Coordinators are the known coordinator addresses in preference
	// order, used for registration.
	Coordinators []string

	// Fallback enables election participation. Peers is the election
	// candidate set (self excluded) and is only consulted when Fallback
	// is set.
	Fallback bool
	Peers    []string

	// RegisterTimeout bounds each registration attempt. Defaults to 2s.
	RegisterTimeout time.Duration
	// ProbeInterval and PeerTimeout tune the election unit.
	ProbeInterval time.Duration
	PeerTimeout   time.Duration
}

// Node is one running storage node.
type Node struct {
	cfg     Config
	store   *Store
	elector *election.Elector
	server  *transport.Server

	mu   sync.Mutex
	addr string
}

// New creates a storage node. Start brings it online.
func New(cfg Config) *Node {
	if cfg.RegisterTimeout <= 0 {
		cfg.RegisterTimeout = 2 * time.Second
	}

	n := &Node{
		cfg:   cfg,
		store: NewStore(),
	}
	n.server = transport.NewServer(cfg.Addr, n)
	return n
}

// Start binds the listener, registers with the primary coordinator and,
// when configured as a fallback candidate, joins the election.
//
// Registration failure is logged, not retried: the node stays invisible
// to GET_NODES until a later registration attempt succeeds.
func (n *Node) Start() error {
	if err := n.server.Listen(); err != nil {
		return err
	}

	n.mu.Lock()
	n.addr = n.server.Addr()
	n.mu.Unlock()

	if n.cfg.Fallback {
		elector, err := election.New(election.Config{
			SelfAddr:      n.addr,
			Peers:         n.cfg.Peers,
			ProbeInterval: n.cfg.ProbeInterval,
			PeerTimeout:   n.cfg.PeerTimeout,
			// A freshly elected primary starts with an empty registry,
			// so make this node known to it again.
			OnPrimaryChange: n.onPrimaryChange,
		})
		if err != nil {
			n.server.Close()
			return err
		}
		n.elector = elector
	}

	n.server.Serve()
	if n.elector != nil {
		n.elector.Start()
	}

	if err := n.Register(); err != nil {
		slog.Error("registration with coordinator failed", "addr", n.addr, "error", err)
	}

	slog.Info("storage node started", "addr", n.addr, "fallback", n.cfg.Fallback)
	return nil
}

// Addr returns the bound listen address.
func (n *Node) Addr() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.addr
}

// Close stops the election loop and the listener.
func (n *Node) Close() {
	if n.elector != nil {
		n.elector.Stop()
	}
	n.server.Close()
}

// Register announces this node to the first reachable coordinator,
// preferring the believed primary.
func (n *Node) Register() error {
	req := transport.Request{
		Cmd:       transport.CmdRegisterNode,
		NodeAddr:  n.Addr(),
		BuildID:   buildinfo.BuildID,
		BuildTime: buildinfo.BuildTime,
	}

	for _, addr := range n.registrationOrder() {
		resp, err := transport.Send(addr, req, n.cfg.RegisterTimeout)
		if err != nil {
			slog.Debug("coordinator unreachable during registration", "coordinator", addr, "error", err)
			continue
		}
		if resp.Status != transport.StatusOK {
			slog.Debug("registration rejected", "coordinator", addr, "status", resp.Status, "error", resp.Error)
			continue
		}
		slog.Info("registered with coordinator", "coordinator", addr, "addr", n.Addr())
		return nil
	}

	return fmt.Errorf("no coordinator accepted registration of %s", n.Addr())
}

// registrationOrder lists coordinators to try, believed primary first.
func (n *Node) registrationOrder() []string {
	order := make([]string, 0, len(n.cfg.Coordinators)+1)
	if n.elector != nil {
		if primary := n.elector.Primary(); primary != "" && primary != n.Addr() {
			order = append(order, primary)
		}
	}
	for _, addr := range n.cfg.Coordinators {
		if len(order) > 0 && addr == order[0] {
			continue
		}
		order = append(order, addr)
	}
	return order
}

func (n *Node) onPrimaryChange(primary string) {
	if primary == n.Addr() {
		return
	}
	if err := n.Register(); err != nil {
		slog.Warn("re-registration after primary change failed", "primary", primary, "error", err)
	}
}

// Handle answers data-plane requests and, for fallback candidates,
// election traffic. Any process answers HEARTBEAT_CHECK.
func (n *Node) Handle(req transport.Request) transport.Response {
	switch req.Cmd {
	case transport.CmdStoreFile:
		if req.Filename == "" {
			return transport.InvalidCommand()
		}
		n.store.Put(req.Filename, req.Data)
		slog.Debug("stored file", "filename", req.Filename, "bytes", len(req.Data))
		return transport.Response{Status: transport.StatusStored}

	case transport.CmdGetFile:
		if req.Filename == "" {
			return transport.InvalidCommand()
		}
		data, ok := n.store.Get(req.Filename)
		if !ok {
			return transport.Response{Error: transport.ErrFileNotFound}
		}
		return transport.Response{Status: transport.StatusOK, Data: data}

	case transport.CmdHeartbeatCheck:
		if n.elector != nil {
			return n.elector.HandleHeartbeat()
		}
		return transport.Response{Status: transport.StatusAlive, ResponderID: n.Addr()}

	case transport.CmdElection:
		if n.elector == nil {
			return transport.InvalidCommand()
		}
		return n.elector.HandleElection(req.SenderID)

	case transport.CmdCoordinator:
		if n.elector == nil {
			return transport.InvalidCommand()
		}
		return n.elector.HandleCoordinator(req.NewPrimary)

	default:
		return transport.InvalidCommand()
	}
}
