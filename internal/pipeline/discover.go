package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtensions is the discovery filter used when none is given: every
// image format the decoders are registered for, plus Radiance .hdr.
var DefaultExtensions = []string{".tif*", ".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp", ".hdr"}

// Discover walks dir recursively and returns every regular file whose name
// ends with one of exts, sorted in natural order. An ext may contain glob
// metacharacters (".tif*" matches .tif and .tiff); matching ignores case.
// A missing dir yields no files and no error.
func Discover(fsys afero.Fs, dir string, exts ...string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	patterns := make([]string, len(exts))
	for i, ext := range exts {
		patterns[i] = "*" + strings.ToLower(ext)
	}

	if _, err := fsys.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := afero.Walk(fsys, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if matchAny(patterns, strings.ToLower(info.Name())) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return naturalLess(files[i], files[j]) })
	return files, nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// naturalLess orders strings so that runs of digits compare by value:
// frame2 < frame10. Leading zeros only break ties between strings that are
// otherwise equal; the fewer zeros sort first.
func naturalLess(a, b string) bool {
	zeros := 0 // <0: a had fewer leading zeros at the first difference, >0: b had.
	for a != "" && b != "" {
		da, db := digitPrefix(a), digitPrefix(b)
		if da == "" || db == "" {
			if a[0] != b[0] {
				return a[0] < b[0]
			}
			a, b = a[1:], b[1:]
			continue
		}
		ta, tb := strings.TrimLeft(da, "0"), strings.TrimLeft(db, "0")
		if len(ta) != len(tb) {
			return len(ta) < len(tb)
		}
		if ta != tb {
			return ta < tb
		}
		if zeros == 0 && len(da) != len(db) {
			zeros = len(da) - len(db)
		}
		a, b = a[len(da):], b[len(db):]
	}
	if a != "" || b != "" {
		return len(a) < len(b)
	}
	return zeros < 0
}

func digitPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i]
}
