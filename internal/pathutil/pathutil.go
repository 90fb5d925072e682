// Package pathutil collects the small filesystem naming helpers shared by
// the three CLI front ends (assembler, VM translator, Jack analyzer): every
// one of them needs to strip/replace extensions and, when given a directory,
// discover its source files deterministically.
package pathutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// NameNoExt returns the base name of 'path' with its extension (if any) removed.
//
//	NameNoExt("foo/Bar.vm") == "Bar"
func NameNoExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WithExt returns 'path' with its extension replaced by 'ext' ('ext' must not
// include the leading dot).
//
//	WithExt("foo/Bar.vm", "asm") == "foo/Bar.asm"
func WithExt(path string, ext string) string {
	dir, base := filepath.Dir(path), filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"."+ext)
}

// FilesWithExt lists, in lexicographic order, every file directly inside
// 'dir' whose extension (without the dot) equals 'ext'. Sub-directories and
// files with a different extension are skipped.
func FilesWithExt(dir string, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	matches := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.TrimPrefix(filepath.Ext(entry.Name()), ".") != ext {
			continue
		}
		matches = append(matches, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(matches)
	return matches, nil
}

// Flatten unrolls one level of nesting, concatenating slices of T into a single
// flat slice, preserving encounter order.
func Flatten[T any](xs [][]T) []T {
	flat := make([]T, 0, len(xs))
	for _, x := range xs {
		flat = append(flat, x...)
	}
	return flat
}
