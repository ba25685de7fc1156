package coordinator

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// NodeInfo describes one registered storage node.
type NodeInfo struct {
	Addr         string
	BuildID      string
	BuildTime    string
	RegisteredAt time.Time
}

// MetadataStore tracks which storage nodes exist and which nodes hold
// each file. Both tables are in-memory only and lost on restart. The
// node registry grows only; a node that goes silent stays listed, so
// callers must tolerate a storage-node call failing.
type MetadataStore struct {
	fileMu sync.RWMutex
	files  map[string][]string

	nodeMu sync.RWMutex
	nodes  map[string]NodeInfo
}

// NewMetadataStore creates an empty metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		files: make(map[string][]string),
		nodes: make(map[string]NodeInfo),
	}
}

// RegisterNode adds a storage node to the registry. Re-registration
// refreshes the recorded info and is otherwise a no-op.
func (ms *MetadataStore) RegisterNode(info NodeInfo) {
	ms.nodeMu.Lock()
	defer ms.nodeMu.Unlock()

	_, known := ms.nodes[info.Addr]
	info.RegisteredAt = time.Now()
	ms.nodes[info.Addr] = info

	if !known {
		slog.Info("registered storage node", "addr", info.Addr, "build", info.BuildID)
	}
}

// ListNodes returns a sorted snapshot of registered node addresses.
func (ms *MetadataStore) ListNodes() []string {
	ms.nodeMu.RLock()
	defer ms.nodeMu.RUnlock()

	addrs := make([]string, 0, len(ms.nodes))
	for addr := range ms.nodes {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// RegisterFile records which nodes hold filename, replacing any
// previous record. The supplied node list is trusted as-is; nothing
// verifies the nodes actually hold the data.
func (ms *MetadataStore) RegisterFile(filename string, nodes []string) {
	ms.fileMu.Lock()
	defer ms.fileMu.Unlock()

	replicas := make([]string, len(nodes))
	copy(replicas, nodes)
	ms.files[filename] = replicas

	slog.Info("registered file", "filename", filename, "replicas", replicas)
}

// ResolveFile returns the ordered replica list for filename.
func (ms *MetadataStore) ResolveFile(filename string) ([]string, bool) {
	ms.fileMu.RLock()
	defer ms.fileMu.RUnlock()

	replicas, ok := ms.files[filename]
	if !ok {
		return nil, false
	}
	out := make([]string, len(replicas))
	copy(out, replicas)
	return out, true
}
