package source

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/maypok86/otter"
)

// File is one loaded source file.
type File struct {
	Path    string
	Content string
	ModTime time.Time
	Size    int64
}

// ProgressFunc is called after each file is loaded.
type ProgressFunc func(path string)

// Loader reads files through a bounded content cache keyed by path. A cached
// entry is reused while the file's size and modification time are unchanged,
// so watch-mode rebuilds only re-read files that changed.
type Loader struct {
	cache  otter.Cache[string, File]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewLoader creates a loader caching up to maxFiles files.
func NewLoader(maxFiles int) (*Loader, error) {
	cache, err := otter.MustBuilder[string, File](maxFiles).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create source cache: %w", err)
	}
	return &Loader{cache: cache}, nil
}

// LoadFile returns the content of path, from cache when still current.
func (l *Loader) LoadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if cached, ok := l.cache.Get(path); ok && cached.Size == info.Size() && cached.ModTime.Equal(info.ModTime()) {
		l.hits.Add(1)
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	l.misses.Add(1)

	f := File{
		Path:    path,
		Content: string(data),
		ModTime: info.ModTime(),
		Size:    info.Size(),
	}
	l.cache.Set(path, f)
	return f, nil
}

// Load reads every path in order. It stops at the first error or when ctx
// is cancelled.
func (l *Loader) Load(ctx context.Context, paths []string, progress ProgressFunc) ([]File, error) {
	files := make([]File, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		if progress != nil {
			progress(path)
		}
	}
	return files, nil
}

// Invalidate drops path from the cache.
func (l *Loader) Invalidate(path string) {
	l.cache.Delete(path)
}

// Stats returns the cache hit and miss counts since creation.
func (l *Loader) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

// Close releases the cache.
func (l *Loader) Close() {
	l.cache.Close()
}

// Texts returns the contents of files in order, ready for typedb.Build.
func Texts(files []File) []string {
	texts := make([]string, len(files))
	for i, f := range files {
		texts[i] = f.Content
	}
	return texts
}

// Paths returns the paths of files in order.
func Paths(files []File) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}
