// Package source finds declaration files on disk and loads their contents.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discovery selects files under a root directory with include and ignore
// glob patterns.
type Discovery struct {
	rootDir        string
	includes       []compiledPattern
	ignorePatterns []compiledPattern
}

// NewDiscovery compiles the patterns. Patterns use '/' as separator and are
// matched against slash-separated paths relative to rootDir.
func NewDiscovery(rootDir string, include, ignore []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}

	for _, pattern := range include {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile include pattern %q: %w", pattern, err)
		}
		d.includes = append(d.includes, compiledPattern{pattern: pattern, glob: g})
	}

	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("failed to compile ignore pattern %q: %w", pattern, err)
		}
		d.ignorePatterns = append(d.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return d, nil
}

// RootDir returns the directory discovery walks.
func (d *Discovery) RootDir() string { return d.rootDir }

// Discover walks the tree and returns matching files as absolute paths,
// sorted by relative path so builds are reproducible.
func (d *Discovery) Discover() ([]string, error) {
	root, err := filepath.Abs(d.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	var rels []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if info.IsDir() {
			if relPath != "." && d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Matches(relPath) {
			rels = append(rels, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(rels)
	files := make([]string, len(rels))
	for i, rel := range rels {
		files[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	return files, nil
}

// Matches reports whether a slash-separated relative path is included and
// not ignored.
func (d *Discovery) Matches(relPath string) bool {
	return !d.shouldIgnore(relPath) && matchesAnyPattern(relPath, d.includes)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// "**/*.lua" also matches files in the root ("init.lua").
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				if g, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}

	return false
}

// Resolve returns the ordered build input: explicit files first, in the
// given order, then discovered files not already listed. Relative explicit
// paths are resolved against the discovery root.
func Resolve(d *Discovery, explicit []string) ([]string, error) {
	root, err := filepath.Abs(d.rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, f := range explicit {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, f)
		}
		f = filepath.Clean(f)
		if seen[f] {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("source file %s: %w", f, err)
		}
		seen[f] = true
		files = append(files, f)
	}

	if len(d.includes) == 0 {
		return files, nil
	}

	discovered, err := d.Discover()
	if err != nil {
		return nil, err
	}
	for _, f := range discovered {
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files, nil
}
