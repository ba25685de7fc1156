package storagenode

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-dfs/internal/transport"
)

// fakeCoordinator accepts registrations and records them.
type fakeCoordinator struct {
	mu         sync.Mutex
	registered []transport.Request
	server     *transport.Server
}

func startFakeCoordinator(t *testing.T) *fakeCoordinator {
	t.Helper()

	fc := &fakeCoordinator{}
	fc.server = transport.NewServer("localhost:0", fc)
	require.NoError(t, fc.server.Start())
	t.Cleanup(fc.server.Close)
	return fc
}

func (fc *fakeCoordinator) Handle(req transport.Request) transport.Response {
	if req.Cmd != transport.CmdRegisterNode {
		return transport.InvalidCommand()
	}
	fc.mu.Lock()
	fc.registered = append(fc.registered, req)
	fc.mu.Unlock()
	return transport.Response{Status: transport.StatusOK}
}

func (fc *fakeCoordinator) registrations() []transport.Request {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return append([]transport.Request(nil), fc.registered...)
}

func startNode(t *testing.T, coordinators ...string) *Node {
	t.Helper()

	n := New(Config{
		Addr:            "localhost:0",
		Coordinators:    coordinators,
		RegisterTimeout: time.Second,
	})
	require.NoError(t, n.Start())
	t.Cleanup(n.Close)
	return n
}

func send(t *testing.T, addr string, req transport.Request) transport.Response {
	t.Helper()

	resp, err := transport.Send(addr, req, time.Second)
	require.NoError(t, err)
	return resp
}

func TestStoreAndFetchFile(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{
		Cmd:      transport.CmdStoreFile,
		Filename: "report.txt",
		Data:     []byte("quarterly numbers"),
	})
	require.Equal(t, transport.StatusStored, resp.Status)

	resp = send(t, n.Addr(), transport.Request{
		Cmd:      transport.CmdGetFile,
		Filename: "report.txt",
	})
	assert.Equal(t, transport.StatusOK, resp.Status)
	assert.Equal(t, []byte("quarterly numbers"), resp.Data)
}

func TestFetchUnknownFile(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{
		Cmd:      transport.CmdGetFile,
		Filename: "missing.txt",
	})
	assert.Equal(t, transport.ErrFileNotFound, resp.Error)
	assert.Empty(t, resp.Data)
}

func TestStoreOverwritesPreviousContents(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	send(t, n.Addr(), transport.Request{
		Cmd: transport.CmdStoreFile, Filename: "f", Data: []byte("v1"),
	})
	send(t, n.Addr(), transport.Request{
		Cmd: transport.CmdStoreFile, Filename: "f", Data: []byte("v2"),
	})

	resp := send(t, n.Addr(), transport.Request{
		Cmd: transport.CmdGetFile, Filename: "f",
	})
	assert.Equal(t, []byte("v2"), resp.Data)
}

func TestStoreEmptyFile(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{
		Cmd: transport.CmdStoreFile, Filename: "empty",
	})
	require.Equal(t, transport.StatusStored, resp.Status)

	// An empty file is still found; the success status distinguishes it
	// from a miss.
	resp = send(t, n.Addr(), transport.Request{
		Cmd: transport.CmdGetFile, Filename: "empty",
	})
	assert.Equal(t, transport.StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Empty(t, resp.Data)
}

func TestRegistersWithCoordinatorOnStart(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	regs := fc.registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, transport.CmdRegisterNode, regs[0].Cmd)
	assert.Equal(t, n.Addr(), regs[0].NodeAddr)
}

func TestRegistrationFallsThroughDeadCoordinators(t *testing.T) {
	fc := startFakeCoordinator(t)

	// The first coordinator address refuses connections.
	n := startNode(t, "localhost:1", fc.server.Addr())

	regs := fc.registrations()
	require.Len(t, regs, 1)
	assert.Equal(t, n.Addr(), regs[0].NodeAddr)
}

func TestHeartbeatAlwaysAnswered(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{Cmd: transport.CmdHeartbeatCheck})
	assert.Equal(t, transport.StatusAlive, resp.Status)
	assert.Equal(t, n.Addr(), resp.ResponderID)
}

func TestElectionCommandsRejectedWithoutFallback(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{
		Cmd:      transport.CmdElection,
		SenderID: "localhost:5000",
	})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)

	resp = send(t, n.Addr(), transport.Request{
		Cmd:        transport.CmdCoordinator,
		NewPrimary: "localhost:5000",
	})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)
}

func TestUnknownCommand(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{Cmd: "NO_SUCH_CMD"})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)
}

func TestStoreMissingFilename(t *testing.T) {
	fc := startFakeCoordinator(t)
	n := startNode(t, fc.server.Addr())

	resp := send(t, n.Addr(), transport.Request{Cmd: transport.CmdStoreFile})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)

	resp = send(t, n.Addr(), transport.Request{Cmd: transport.CmdGetFile})
	assert.Equal(t, transport.ErrInvalidCommand, resp.Error)
}

func TestStoreDefensiveCopies(t *testing.T) {
	s := NewStore()

	buf := []byte("original")
	s.Put("f", buf)
	buf[0] = 'X'

	got, ok := s.Get("f")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)

	// Mutating the returned slice must not affect the stored copy.
	got[0] = 'Y'
	again, _ := s.Get("f")
	assert.Equal(t, []byte("original"), again)
	assert.Equal(t, 1, s.Count())
}
