// Package election maintains a single primary coordinator among a
// static set of candidates using the bully algorithm: the reachable
// candidate with the highest priority wins, where priority is the
// numeric port of the candidate's listen address.
//
// The algorithm converges within one election round under a connected
// network. It carries no quorum, so a partition can elect a primary on
// each side; that limitation is accepted.
package election

import (
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"go-dfs/internal/transport"
)

// State is a candidate's view of its own role.
type State string

const (
	StatePrimary  State = "primary"
	StateFollower State = "follower"
	StateElecting State = "electing"
)

// SendFunc delivers a request to a peer. It exists so tests can
// substitute the transport.
type SendFunc func(addr string, req transport.Request, timeout time.Duration) (transport.Response, error)

// Config configures an Elector. SelfAddr and Peers together form the
// static candidate set; every member must be a host:port address.
type Config struct {
	// SelfAddr is this candidate's listen address and identifier.
	SelfAddr string
	// Peers are the other candidates' addresses, self excluded.
	Peers []string
	// ProbeInterval is how often a follower checks the primary's
	// liveness. Defaults to 5s.
	ProbeInterval time.Duration
	// PeerTimeout bounds each probe and election message. Defaults to 1s.
	PeerTimeout time.Duration
	// OnPrimaryChange, if set, is called whenever the believed primary
	// changes, including when self wins. Called from a fresh goroutine.
	OnPrimaryChange func(primary string)
	// Send overrides the transport used to reach peers.
	Send SendFunc
}

// Elector runs the bully algorithm for one candidate process.
type Elector struct {
	cfg      Config
	priority int

	mu       sync.Mutex
	state    State
	primary  string
	electing bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// Priority extracts the numeric port from a host:port address. Higher
// port means higher election priority.
func Priority(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid candidate address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid candidate port %q: %w", portStr, err)
	}
	return port, nil
}

// New creates an Elector. It validates that self and every peer carry a
// usable priority.
func New(cfg Config) (*Elector, error) {
	prio, err := Priority(cfg.SelfAddr)
	if err != nil {
		return nil, err
	}
	for _, peer := range cfg.Peers {
		if _, err := Priority(peer); err != nil {
			return nil, err
		}
	}

	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 5 * time.Second
	}
	if cfg.PeerTimeout <= 0 {
		cfg.PeerTimeout = time.Second
	}
	if cfg.Send == nil {
		cfg.Send = transport.Send
	}

	return &Elector{
		cfg:      cfg,
		priority: prio,
		state:    StateFollower,
		stop:     make(chan struct{}),
	}, nil
}

// Start launches the liveness loop and holds an initial election to
// discover (or claim) the primary.
func (e *Elector) Start() {
	e.wg.Add(1)
	go e.probeLoop()
	go e.StartElection()
}

// Stop terminates the liveness loop. Handlers remain usable.
func (e *Elector) Stop() {
	select {
	case <-e.stop:
		return
	default:
	}
	close(e.stop)
	e.wg.Wait()
}

// State returns the current role.
func (e *Elector) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Primary returns the believed primary's address, or "" if none is
// known yet.
func (e *Elector) Primary() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.primary
}

// IsPrimary reports whether this candidate currently believes it is the
// primary.
func (e *Elector) IsPrimary() bool {
	return e.State() == StatePrimary
}

func (e *Elector) probeLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.probePrimary()
		}
	}
}

// probePrimary checks the believed primary's liveness and starts an
// election when the probe fails or no primary is known.
func (e *Elector) probePrimary() {
	e.mu.Lock()
	state, primary := e.state, e.primary
	e.mu.Unlock()

	if state != StateFollower {
		return
	}
	if primary == "" {
		e.StartElection()
		return
	}

	resp, err := e.cfg.Send(primary, transport.Request{
		Cmd:      transport.CmdHeartbeatCheck,
		SenderID: e.cfg.SelfAddr,
	}, e.cfg.PeerTimeout)
	if err == nil && resp.Status == transport.StatusAlive {
		return
	}

	slog.Warn("primary unreachable, starting election", "self", e.cfg.SelfAddr, "primary", primary, "error", err)
	e.StartElection()
}

// StartElection runs one bully round. Concurrent calls collapse into a
// single round.
func (e *Elector) StartElection() {
	e.mu.Lock()
	if e.electing {
		e.mu.Unlock()
		return
	}
	e.electing = true
	e.state = StateElecting
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.electing = false
		e.mu.Unlock()
	}()

	slog.Info("election started", "self", e.cfg.SelfAddr)

	// Challenge every higher-priority peer; the highest one that
	// answers OK is expected to take over.
	bestAddr := ""
	bestPrio := -1
	for _, peer := range e.cfg.Peers {
		prio, err := Priority(peer)
		if err != nil || prio <= e.priority {
			continue
		}

		resp, err := e.cfg.Send(peer, transport.Request{
			Cmd:      transport.CmdElection,
			SenderID: e.cfg.SelfAddr,
		}, e.cfg.PeerTimeout)
		if err != nil || resp.Status != transport.StatusOK {
			continue
		}

		responder := resp.ResponderID
		if responder == "" {
			responder = peer
		}
		if prio, err := Priority(responder); err == nil && prio > bestPrio {
			bestAddr, bestPrio = responder, prio
		}
	}

	if bestAddr == "" {
		e.becomePrimary()
		return
	}

	// A higher peer is alive. Expect its COORDINATOR announcement; the
	// liveness loop re-probes if it never arrives.
	slog.Info("deferring to higher candidate", "self", e.cfg.SelfAddr, "candidate", bestAddr)
	e.setPrimary(bestAddr, StateFollower)
}

// becomePrimary claims primacy and announces it to every peer,
// best-effort. Unreachable peers are skipped.
func (e *Elector) becomePrimary() {
	e.setPrimary(e.cfg.SelfAddr, StatePrimary)
	slog.Info("became primary", "self", e.cfg.SelfAddr)

	for _, peer := range e.cfg.Peers {
		_, err := e.cfg.Send(peer, transport.Request{
			Cmd:        transport.CmdCoordinator,
			NewPrimary: e.cfg.SelfAddr,
		}, e.cfg.PeerTimeout)
		if err != nil {
			slog.Debug("coordinator announcement not delivered", "peer", peer, "error", err)
		}
	}
}

// setPrimary records a new believed primary and fires OnPrimaryChange
// when the belief actually changed.
func (e *Elector) setPrimary(primary string, state State) {
	e.mu.Lock()
	changed := e.primary != primary
	e.primary = primary
	e.state = state
	e.mu.Unlock()

	if changed && e.cfg.OnPrimaryChange != nil {
		go e.cfg.OnPrimaryChange(primary)
	}
}

// knownCandidate reports whether addr belongs to the static candidate
// set (self or a configured peer).
func (e *Elector) knownCandidate(addr string) bool {
	if addr == e.cfg.SelfAddr {
		return true
	}
	for _, peer := range e.cfg.Peers {
		if peer == addr {
			return true
		}
	}
	return false
}

// HandleElection answers an ELECTION challenge. A candidate contests
// only when its own priority is strictly higher than the sender's; it
// then replies OK and runs its own election round. Lower or equal
// priority stays silent (an empty response).
func (e *Elector) HandleElection(senderID string) transport.Response {
	senderPrio, err := Priority(senderID)
	if err != nil {
		return transport.InvalidCommand()
	}

	if e.priority <= senderPrio {
		return transport.Response{}
	}

	go e.StartElection()
	return transport.Response{
		Status:      transport.StatusOK,
		ResponderID: e.cfg.SelfAddr,
	}
}

// HandleCoordinator adopts an announced primary. Any recognized
// candidate is adopted unconditionally; there is deliberately no
// numeric comparison against the current belief, so a legitimately
// elected lower-priority primary is accepted after a higher one fails.
func (e *Elector) HandleCoordinator(newPrimary string) transport.Response {
	if !e.knownCandidate(newPrimary) {
		slog.Warn("ignoring coordinator announcement from unknown candidate", "announced", newPrimary)
		return transport.InvalidCommand()
	}

	state := StateFollower
	if newPrimary == e.cfg.SelfAddr {
		state = StatePrimary
	}
	e.setPrimary(newPrimary, state)

	slog.Info("adopted primary", "self", e.cfg.SelfAddr, "primary", newPrimary)
	return transport.Response{Status: transport.StatusAcknowledged}
}

// HandleHeartbeat answers a liveness probe. It attests only that the
// process is reachable, not that it is the legitimate primary.
func (e *Elector) HandleHeartbeat() transport.Response {
	return transport.Response{
		Status:      transport.StatusAlive,
		ResponderID: e.cfg.SelfAddr,
	}
}
