package indexer

// ProgressReporter provides callbacks for reporting build progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(files int)

	// OnFileLoadingStart is called before reading files.
	OnFileLoadingStart(totalFiles int)

	// OnFileLoaded is called after each file is read.
	OnFileLoaded(path string)

	// OnComplete is called when the build completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                 {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(files int)     {}
func (n *NoOpProgressReporter) OnFileLoadingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileLoaded(path string)          {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)           {}
