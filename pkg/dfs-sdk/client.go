package dfs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"go-dfs/internal/transport"
)

const (
	defaultAttemptTimeout = 2 * time.Second
	defaultReplication    = 2
)

// Option configures the SDK client.
type Option func(*clientConfig)

type clientConfig struct {
	attemptTimeout time.Duration
	replication    int
	selector       NodeSelector
	readOrder      ReadOrder
}

// New creates a client that fails over across the given coordinator
// addresses in order. The client identity used for locking is generated
// once here and lives as long as the Client.
func New(coordinators []string, opts ...Option) (*Client, error) {
	if len(coordinators) == 0 {
		return nil, ErrNoCoordinator
	}

	cfg := clientConfig{
		attemptTimeout: defaultAttemptTimeout,
		replication:    defaultReplication,
		selector:       DefaultNodeSelector,
		readOrder:      DefaultReadOrder,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	addrs := make([]string, len(coordinators))
	copy(addrs, coordinators)

	return &Client{
		clientID:     uuid.NewString(),
		coordinators: addrs,
		cfg:          cfg,
	}, nil
}

// Client is the SDK entry point.
type Client struct {
	clientID     string
	coordinators []string
	cfg          clientConfig

	mu      sync.Mutex
	current int // index of the coordinator that last answered
}

// ClientID returns the opaque identity used to prove lock ownership.
func (c *Client) ClientID() string {
	return c.clientID
}

// Coordinator returns the address of the coordinator that answered most
// recently.
func (c *Client) Coordinator() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coordinators[c.current]
}

// WithAttemptTimeout sets the per-attempt timeout for every call.
func WithAttemptTimeout(timeout time.Duration) Option {
	return func(cfg *clientConfig) {
		if timeout > 0 {
			cfg.attemptTimeout = timeout
		}
	}
}

// WithReplication sets how many storage nodes receive each upload.
func WithReplication(n int) Option {
	return func(cfg *clientConfig) {
		if n > 0 {
			cfg.replication = n
		}
	}
}

// WithNodeSelector overrides the replica placement strategy.
func WithNodeSelector(selector NodeSelector) Option {
	return func(cfg *clientConfig) {
		if selector != nil {
			cfg.selector = selector
		}
	}
}

// WithReadOrder overrides the download read-preference strategy.
func WithReadOrder(order ReadOrder) Option {
	return func(cfg *clientConfig) {
		if order != nil {
			cfg.readOrder = order
		}
	}
}

// control sends a control-plane request, trying each known coordinator
// starting from the current one. The first responder becomes current
// for subsequent calls; a full pass with no responder returns
// ErrNoCoordinator.
func (c *Client) control(ctx context.Context, req transport.Request) (transport.Response, error) {
	c.mu.Lock()
	start := c.current
	c.mu.Unlock()

	for i := 0; i < len(c.coordinators); i++ {
		if err := ctx.Err(); err != nil {
			return transport.Response{}, err
		}

		idx := (start + i) % len(c.coordinators)
		addr := c.coordinators[idx]

		resp, err := transport.Send(addr, req, c.cfg.attemptTimeout)
		if err != nil {
			slog.Debug("coordinator attempt failed", "coordinator", addr, "cmd", req.Cmd, "error", err)
			continue
		}

		c.mu.Lock()
		c.current = idx
		c.mu.Unlock()
		return resp, nil
	}

	return transport.Response{}, ErrNoCoordinator
}

// GetNodes returns the coordinator's current storage node registry. The
// list can contain addresses with no live process behind them.
func (c *Client) GetNodes(ctx context.Context) ([]string, error) {
	resp, err := c.control(ctx, transport.Request{Cmd: transport.CmdGetNodes})
	if err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// ResolveFile returns the replica set registered for filename.
func (c *Client) ResolveFile(ctx context.Context, filename string) ([]string, error) {
	resp, err := c.control(ctx, transport.Request{
		Cmd:      transport.CmdGetFileNodes,
		Filename: filename,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	return resp.Nodes, nil
}
