package transport

// Command tags understood by coordinator and storage node services.
// Every request carries exactly one of these in its Cmd field; anything
// else is answered with ErrInvalidCommand.
const (
	CmdRegisterNode   = "REGISTER_NODE"
	CmdGetNodes       = "GET_NODES"
	CmdAddFile        = "ADD_FILE"
	CmdGetFileNodes   = "GET_FILE_NODES"
	CmdLock           = "LOCK"
	CmdUnlock         = "UNLOCK"
	CmdElection       = "ELECTION"
	CmdCoordinator    = "COORDINATOR"
	CmdHeartbeatCheck = "HEARTBEAT_CHECK"
	CmdStoreFile      = "STORE_FILE"
	CmdGetFile        = "GET_FILE"
)

// Status values returned in Response.Status.
const (
	StatusOK             = "OK"
	StatusFileRegistered = "FILE_REGISTERED"
	StatusLockAcquired   = "LOCK_ACQUIRED"
	StatusLockDenied     = "LOCK_DENIED"
	StatusUnlocked       = "UNLOCKED"
	StatusNotYourLock    = "NOT_YOUR_LOCK"
	StatusAcknowledged   = "ACKNOWLEDGED"
	StatusAlive          = "ALIVE"
	StatusStored         = "STORED"
)

// Error values returned in Response.Error.
const (
	ErrFileNotFound   = "FILE_NOT_FOUND"
	ErrInvalidCommand = "Invalid command"
)

// Request is the envelope for every message exchanged in the system.
// Cmd selects the operation; the remaining fields are typed payload
// slots, each used by the commands that need them.
type Request struct {
	Cmd      string `json:"cmd"`
	Filename string `json:"filename,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	Data     []byte `json:"data,omitempty"`

	// Node registration and file placement.
	NodeAddr  string   `json:"node_addr,omitempty"`
	Nodes     []string `json:"nodes,omitempty"`
	BuildID   string   `json:"build_id,omitempty"`
	BuildTime string   `json:"build_time,omitempty"`

	// Election traffic.
	SenderID   string `json:"sender_id,omitempty"`
	NewPrimary string `json:"new_primary,omitempty"`
}

// Response carries the outcome of a request. Exactly one of Status or
// Error is set for control-plane commands; data-plane reads additionally
// fill Data, and election replies fill ResponderID.
type Response struct {
	Status      string   `json:"status,omitempty"`
	Error       string   `json:"error,omitempty"`
	Nodes       []string `json:"nodes,omitempty"`
	Data        []byte   `json:"data,omitempty"`
	ResponderID string   `json:"responder_id,omitempty"`
}

// InvalidCommand is the response for unknown commands and requests with
// missing required fields.
func InvalidCommand() Response {
	return Response{Error: ErrInvalidCommand}
}
