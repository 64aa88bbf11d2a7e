// Package version provides version information for the oracle-node application.
package version

// Version is the current version of the oracle-node application.
const Version = "0.1.0"

// AgentString returns the full agent string with versioning.
// Format: oracle-node/v{version}
func AgentString() string {
	return "oracle-node/v" + Version
}
