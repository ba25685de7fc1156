// Package dfs provides a Go SDK for the mini distributed file store.
//
// The SDK talks to the coordinator for control-plane calls (locks, node
// lists, file registration) with automatic failover across the known
// coordinator addresses, and to storage nodes directly for file bytes.
package dfs
