package coordinator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dfs/internal/transport"
)

func startCoordinator(t *testing.T) *Coordinator {
	t.Helper()

	c := New(Config{
		Addr:          "localhost:0",
		LeaseDuration: 30 * time.Second,
		SweepInterval: 50 * time.Millisecond,
		ProbeInterval: time.Hour, // keep the election quiet during dispatch tests
		PeerTimeout:   100 * time.Millisecond,
	})
	require.NoError(t, c.Start())
	t.Cleanup(c.Close)
	return c
}

func send(t *testing.T, addr string, req transport.Request) transport.Response {
	t.Helper()
	resp, err := transport.Send(addr, req, time.Second)
	require.NoError(t, err)
	return resp
}

func TestNodeRegistrationAndListing(t *testing.T) {
	c := startCoordinator(t)

	resp := send(t, c.Addr(), transport.Request{
		Cmd:      transport.CmdRegisterNode,
		NodeAddr: "localhost:5001",
	})
	assert.Equal(t, transport.StatusOK, resp.Status)

	resp = send(t, c.Addr(), transport.Request{Cmd: transport.CmdGetNodes})
	assert.Equal(t, []string{"localhost:5001"}, resp.Nodes)
}

func TestFileRegistrationAndResolution(t *testing.T) {
	c := startCoordinator(t)

	resp := send(t, c.Addr(), transport.Request{
		Cmd:      transport.CmdAddFile,
		Filename: "a.txt",
		Nodes:    []string{"localhost:5001", "localhost:5002"},
	})
	assert.Equal(t, transport.StatusFileRegistered, resp.Status)

	resp = send(t, c.Addr(), transport.Request{
		Cmd:      transport.CmdGetFileNodes,
		Filename: "a.txt",
	})
	assert.Empty(t, resp.Error)
	assert.Equal(t, []string{"localhost:5001", "localhost:5002"}, resp.Nodes)

	resp = send(t, c.Addr(), transport.Request{
		Cmd:      transport.CmdGetFileNodes,
		Filename: "missing.txt",
	})
	assert.Equal(t, transport.ErrFileNotFound, resp.Error)
}

func TestLockCommands(t *testing.T) {
	c := startCoordinator(t)

	resp := send(t, c.Addr(), transport.Request{
		Cmd: transport.CmdLock, Filename: "a.txt", ClientID: "client-1",
	})
	assert.Equal(t, transport.StatusLockAcquired, resp.Status)

	resp = send(t, c.Addr(), transport.Request{
		Cmd: transport.CmdLock, Filename: "a.txt", ClientID: "client-2",
	})
	assert.Equal(t, transport.StatusLockDenied, resp.Status)

	resp = send(t, c.Addr(), transport.Request{
		Cmd: transport.CmdUnlock, Filename: "a.txt", ClientID: "client-2",
	})
	assert.Equal(t, transport.StatusNotYourLock, resp.Status)

	resp = send(t, c.Addr(), transport.Request{
		Cmd: transport.CmdUnlock, Filename: "a.txt", ClientID: "client-1",
	})
	assert.Equal(t, transport.StatusUnlocked, resp.Status)
}

func TestLockSelfHealsAfterLeaseExpiry(t *testing.T) {
	c := New(Config{
		Addr:          "localhost:0",
		LeaseDuration: 100 * time.Millisecond,
		SweepInterval: 25 * time.Millisecond,
		ProbeInterval: time.Hour,
	})
	require.NoError(t, c.Start())
	t.Cleanup(c.Close)

	resp := send(t, c.Addr(), transport.Request{
		Cmd: transport.CmdLock, Filename: "a.txt", ClientID: "crashed-client",
	})
	require.Equal(t, transport.StatusLockAcquired, resp.Status)

	// Within lease+sweep the background loop must have collected it.
	assert.Eventually(t, func() bool {
		resp, err := transport.Send(c.Addr(), transport.Request{
			Cmd: transport.CmdLock, Filename: "a.txt", ClientID: "client-2",
		}, time.Second)
		return err == nil && resp.Status == transport.StatusLockAcquired
	}, 2*time.Second, 25*time.Millisecond)
}

func TestHeartbeatCheck(t *testing.T) {
	c := startCoordinator(t)

	resp := send(t, c.Addr(), transport.Request{Cmd: transport.CmdHeartbeatCheck})
	assert.Equal(t, transport.StatusAlive, resp.Status)
	assert.Equal(t, c.Addr(), resp.ResponderID)
}

func TestUnknownCommand(t *testing.T) {
	c := startCoordinator(t)

	resp := send(t, c.Addr(), transport.Request{Cmd: "NO_SUCH_COMMAND"})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)
}

func TestMissingFieldsRejected(t *testing.T) {
	c := startCoordinator(t)

	for _, req := range []transport.Request{
		{Cmd: transport.CmdRegisterNode},
		{Cmd: transport.CmdAddFile, Filename: "a.txt"},
		{Cmd: transport.CmdAddFile, Nodes: []string{"localhost:5001"}},
		{Cmd: transport.CmdGetFileNodes},
		{Cmd: transport.CmdLock, Filename: "a.txt"},
		{Cmd: transport.CmdUnlock, ClientID: "client-1"},
	} {
		resp := send(t, c.Addr(), req)
		assert.Equal(t, transport.ErrInvalidCommand, resp.Error, "cmd %s", req.Cmd)
	}
}
