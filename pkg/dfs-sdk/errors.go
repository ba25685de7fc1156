package dfs

import "errors"

var (
	// ErrNoCoordinator indicates no known coordinator answered.
	ErrNoCoordinator = errors.New("no coordinator reachable")
	// ErrLockDenied indicates another client holds the upload lock.
	ErrLockDenied = errors.New("lock denied")
	// ErrNoStorageNodes indicates the coordinator knows no storage nodes.
	ErrNoStorageNodes = errors.New("no storage nodes available")
	// ErrReplicationFailed indicates a storage node rejected or missed a write.
	ErrReplicationFailed = errors.New("replication failed")
	// ErrRegistrationFailed indicates the file could not be registered after storage.
	ErrRegistrationFailed = errors.New("file registration failed")
	// ErrNotFound indicates no registered node has the file.
	ErrNotFound = errors.New("file not found")
)
