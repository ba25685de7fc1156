package buildinfo

// Set at build time via -ldflags; reported to the coordinator when a
// storage node registers.
var (
	// BuildID uniquely identifies this build.
	BuildID = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)
