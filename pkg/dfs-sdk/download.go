package dfs

import (
	"context"
	"fmt"
	"log/slog"

	"go-dfs/internal/transport"
)

// Download fetches the bytes of filename from the first replica that
// has them, in the configured read order. A replica that fails or
// misses is skipped; only when every replica misses does the download
// fail with ErrNotFound.
func (c *Client) Download(ctx context.Context, filename string) ([]byte, error) {
	resp, err := c.control(ctx, transport.Request{
		Cmd:      transport.CmdGetFileNodes,
		Filename: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", filename, err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}

	for _, node := range c.cfg.readOrder(resp.Nodes) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nodeResp, err := transport.Send(node, transport.Request{
			Cmd:      transport.CmdGetFile,
			Filename: filename,
		}, c.cfg.attemptTimeout)
		if err != nil {
			slog.Debug("replica fetch failed", "filename", filename, "node", node, "error", err)
			continue
		}
		if nodeResp.Error != "" || nodeResp.Status != transport.StatusOK {
			slog.Debug("replica miss", "filename", filename, "node", node, "error", nodeResp.Error)
			continue
		}
		return nodeResp.Data, nil
	}

	return nil, fmt.Errorf("%w: %s on any replica", ErrNotFound, filename)
}
