package usecase

import "time"

// FileInfo represents file information.
type FileInfo interface {
	Name() string
	Size() int64
	Mode() int
	ModTime() time.Time
	IsDir() bool
	IsSymlink() bool
	IsRegular() bool
	Sys() interface{}
}

// WalkFunc is called for each file/directory during Walk.
type WalkFunc func(path string, info FileInfo, err error) error

// DirEntry represents a directory entry.
type DirEntry interface {
	Name() string
	IsDir() bool
}

// LockInfo represents run-lock file information. Only one engine
// invocation may hold the lock for a given scope (the catalog path) at
// a time.
type LockInfo struct {
	PID               int       `json:"pid"`
	StartTime         time.Time `json:"start_time"`
	Scope             string    `json:"scope"`
	Hostname          string    `json:"hostname"`
	ProcessStartTicks int64     `json:"process_start_ticks"`
	ProcessStartID    string    `json:"process_start_id"`
}

// ProcessInfo represents process information.
type ProcessInfo struct {
	PID        int
	Name       string
	StartTime  time.Time
	CPUPercent float64
	MemoryMB   int64
}

// ProgressEvent is one sample published by a long-running I/O step
// (remote stage, leaf pack, upload) for the Progress Monitor (C9). It
// carries no correctness information — consumers may drop events.
type ProgressEvent struct {
	Phase   string // e.g. "stage", "pack", "upload"
	Label   string // leaf key or bag id being processed
	Current int64
	Total   int64
	Rate    float64 // bytes/sec, 0 if unknown
}

// ProgressSink receives ProgressEvent samples. Implementations must not
// block the producer for long. The console adapter renders each sample
// synchronously inside Publish; it uses no channel or rendering
// goroutine.
type ProgressSink interface {
	Publish(ProgressEvent)
}
