package index

import "strings"

// Cache key kinds.
const (
	KindIndex       = "index"
	KindComposition = "composition"
	KindChanges     = "changes"
)

// BuildLockKey guards index builds.
const BuildLockKey = "lock:build"

// Key joins kind and params with ":". Params are used verbatim, so callers
// must send dates in one form to share entries.
func Key(kind string, params ...string) string {
	return kind + ":" + strings.Join(params, ":")
}
