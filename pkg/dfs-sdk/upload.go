package dfs

import (
	"context"
	"fmt"
	"log/slog"

	"go-dfs/internal/transport"
)

// Upload stores data under filename across the configured number of
// storage nodes and registers the placement with the coordinator.
//
// The sequence is lock, fetch node list, replicate, register, unlock.
// The lock is released on every exit path, including mid-replication
// failure. The steps are not atomic across crashes: a replica written
// before a later failure stays behind as an orphan, and bytes stored
// but never registered stay unreferenced.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) error {
	lockResp, err := c.control(ctx, transport.Request{
		Cmd:      transport.CmdLock,
		Filename: filename,
		ClientID: c.clientID,
	})
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", filename, err)
	}
	if lockResp.Status != transport.StatusLockAcquired {
		return fmt.Errorf("%w: %s held by another client", ErrLockDenied, filename)
	}

	// The unlock must run even when the context is already cancelled.
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		resp, err := c.control(releaseCtx, transport.Request{
			Cmd:      transport.CmdUnlock,
			Filename: filename,
			ClientID: c.clientID,
		})
		if err != nil {
			slog.Warn("lock release failed, lease expiry will recover it", "filename", filename, "error", err)
		} else if resp.Status != transport.StatusUnlocked {
			slog.Warn("lock release rejected", "filename", filename, "status", resp.Status)
		}
	}()

	nodesResp, err := c.control(ctx, transport.Request{Cmd: transport.CmdGetNodes})
	if err != nil {
		return fmt.Errorf("fetch node list: %w", err)
	}
	if len(nodesResp.Nodes) == 0 {
		return ErrNoStorageNodes
	}

	targets := c.cfg.selector(nodesResp.Nodes, c.cfg.replication)
	if len(targets) == 0 {
		return ErrNoStorageNodes
	}

	for _, node := range targets {
		resp, err := transport.Send(node, transport.Request{
			Cmd:      transport.CmdStoreFile,
			Filename: filename,
			Data:     data,
		}, c.cfg.attemptTimeout)
		if err != nil {
			return fmt.Errorf("%w: store on %s: %v", ErrReplicationFailed, node, err)
		}
		if resp.Status != transport.StatusStored {
			return fmt.Errorf("%w: node %s answered %q", ErrReplicationFailed, node, resp.Status)
		}
		slog.Debug("replica stored", "filename", filename, "node", node)
	}

	regResp, err := c.control(ctx, transport.Request{
		Cmd:      transport.CmdAddFile,
		Filename: filename,
		Nodes:    targets,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if regResp.Status != transport.StatusFileRegistered {
		return fmt.Errorf("%w: coordinator answered %q", ErrRegistrationFailed, regResp.Status)
	}

	slog.Info("uploaded file", "filename", filename, "bytes", len(data), "replicas", targets)
	return nil
}
