package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterNodeIdempotent(t *testing.T) {
	ms := NewMetadataStore()

	ms.RegisterNode(NodeInfo{Addr: "localhost:5001"})
	ms.RegisterNode(NodeInfo{Addr: "localhost:5001"})

	assert.Equal(t, []string{"localhost:5001"}, ms.ListNodes())
}

func TestListNodesSorted(t *testing.T) {
	ms := NewMetadataStore()

	ms.RegisterNode(NodeInfo{Addr: "localhost:5002"})
	ms.RegisterNode(NodeInfo{Addr: "localhost:5001"})
	ms.RegisterNode(NodeInfo{Addr: "localhost:5003"})

	assert.Equal(t, []string{"localhost:5001", "localhost:5002", "localhost:5003"}, ms.ListNodes())
}

func TestRegisterResolveRoundTrip(t *testing.T) {
	ms := NewMetadataStore()

	ms.RegisterFile("a.txt", []string{"localhost:5001", "localhost:5002"})

	nodes, ok := ms.ResolveFile("a.txt")
	require.True(t, ok)
	assert.Equal(t, []string{"localhost:5001", "localhost:5002"}, nodes)
}

func TestResolveUnknownFile(t *testing.T) {
	ms := NewMetadataStore()

	_, ok := ms.ResolveFile("missing.txt")
	assert.False(t, ok)
}

func TestRegisterFileReplacesRecord(t *testing.T) {
	ms := NewMetadataStore()

	ms.RegisterFile("a.txt", []string{"localhost:5001", "localhost:5002"})
	ms.RegisterFile("a.txt", []string{"localhost:5003"})

	nodes, ok := ms.ResolveFile("a.txt")
	require.True(t, ok)
	assert.Equal(t, []string{"localhost:5003"}, nodes, "a later registration fully replaces the replica set")
}

func TestResolveReturnsCopy(t *testing.T) {
	ms := NewMetadataStore()

	ms.RegisterFile("a.txt", []string{"localhost:5001"})
	nodes, ok := ms.ResolveFile("a.txt")
	require.True(t, ok)

	nodes[0] = "mutated"

	again, ok := ms.ResolveFile("a.txt")
	require.True(t, ok)
	assert.Equal(t, []string{"localhost:5001"}, again)
}
