// VariantKey
//
// diag.go
//
// @license MIT

package variantkey

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pbnjay/memory"
)

var verbose = false

// SetVerbose toggles the opt-in, non-fatal diagnostic warnings emitted by
// OpenMappedFileDiag (a file larger than the free memory of the host).
// Diagnostics are off by default: this package never writes to stderr on
// its own unless a caller opts in.
func SetVerbose(v bool) {
	verbose = v
}

func warnf(format string, args ...interface{}) {
	if !verbose {
		return
	}
	fmt.Fprint(os.Stderr, color.YellowString("variantkey: warning: "))
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// OpenMappedFileDiag wraps OpenMappedFile with an advisory check against
// the free system memory reported by memory.FreeMemory, warning (never
// failing) when a table looks too large for the host to comfortably map.
func OpenMappedFileDiag(path string) (*MappedFile, error) {
	fi, err := os.Stat(path)
	if err == nil {
		if free := memory.FreeMemory(); free > 0 && uint64(fi.Size()) > free {
			warnf("%s is %d bytes, larger than the %d bytes of free memory reported for this host", path, fi.Size(), free)
		}
	}
	return OpenMappedFile(path)
}
