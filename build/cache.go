package build

import (
	"os"
	"time"
)

// Reusable decides whether a previously built artifact can be served
// instead of invoking the compiler.
//
// Reuse requires all of: the staging directory exists, its mtime is not
// older than the staleness reference, the executable exists, and the
// executable's mtime is not older than the staleness reference.
//
// This is a conservative timestamp-only cache with no content hashing.
// Clock skew or timestamp-preserving copies can force an unnecessary
// rebuild, but under single-host timestamp monotonicity it never serves a
// stale artifact.
func Reusable(binDir, executable string, stalenessRef time.Time) bool {
	dirInfo, err := os.Stat(binDir)
	if err != nil || !dirInfo.IsDir() {
		return false
	}
	if dirInfo.ModTime().Before(stalenessRef) {
		return false
	}

	exeInfo, err := os.Stat(executable)
	if err != nil {
		return false
	}
	return !exeInfo.ModTime().Before(stalenessRef)
}
