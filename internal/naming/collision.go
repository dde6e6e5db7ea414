package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CollisionResolver hands out output paths for a single batch run. When two
// inputs map to the same video (e.g. scan.tif in two subdirectories), the
// later one gets a " - dupN" suffix so it does not overwrite the first.
// Not safe for concurrent use; the batch driver is sequential.
type CollisionResolver struct {
	owners map[string]string // cleaned output path → input that claimed it
}

// NewCollisionResolver creates an empty resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{owners: make(map[string]string)}
}

// Resolve claims requested for input and returns the path to use. A path
// already owned by input is returned unchanged.
func (cr *CollisionResolver) Resolve(input, requested string) string {
	if cr.claim(input, requested) {
		return requested
	}

	dir, base := filepath.Split(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, n, ext))
		if cr.claim(input, candidate) {
			return candidate
		}
	}
}

func (cr *CollisionResolver) claim(input, path string) bool {
	key := filepath.Clean(path)
	if owner, ok := cr.owners[key]; ok && owner != input {
		return false
	}
	cr.owners[key] = input
	return true
}
