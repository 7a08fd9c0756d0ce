package usecase

import "os"

// openForUpload opens a local staging file for streaming to the
// object store. Bag containers can be tens of gigabytes, so this
// bypasses FileSystemPort.ReadFile (which loads the whole file into
// memory) and goes straight to os.Open, the same precedent
// RunLeafPipeline follows for local scratch-file renames.
func openForUpload(deps *Dependencies, path string) (*os.File, error) {
	_ = deps
	return os.Open(path) //nolint:gosec // path is a local staging file the engine created
}
