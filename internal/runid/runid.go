// Package runid tags optimizer and solver runs with a stable identifier so
// log lines from the same parameter search can be correlated.
package runid

import "github.com/google/uuid"

// New returns a fresh run identifier, used to correlate the log lines
// emitted by a single insurance solve or parameter-optimizer search.
func New() string {
	return uuid.NewString()
}
