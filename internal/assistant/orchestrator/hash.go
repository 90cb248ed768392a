package orchestrator

import (
	"fmt"
	"hash/fnv"
)

// requestHash keys the cache by (tool, serialized input). FNV is fine for a
// cache and must never be used for anything security sensitive.
func requestHash(tool, input string) string {
	h := fnv.New64a()
	h.Write([]byte(tool))
	h.Write([]byte{0})
	h.Write([]byte(input))
	return fmt.Sprintf("%016x", h.Sum64())
}
