package dfs

// NodeSelector chooses which storage nodes receive replicas of an
// upload, given the coordinator's node list and the replication factor.
type NodeSelector func(nodes []string, n int) []string

// FirstN takes the first n nodes in registry order.
func FirstN(nodes []string, n int) []string {
	if n > len(nodes) {
		n = len(nodes)
	}
	return nodes[:n]
}

// ReadOrder orders replica candidates for a download. The first node
// that returns the data wins.
type ReadOrder func(nodes []string) []string

// RegistryOrder reads replicas in the order the coordinator returned them.
func RegistryOrder(nodes []string) []string {
	return nodes
}

// DefaultNodeSelector is used when no selector is configured.
var DefaultNodeSelector NodeSelector = FirstN

// DefaultReadOrder is used when no read order is configured.
var DefaultReadOrder ReadOrder = RegistryOrder
