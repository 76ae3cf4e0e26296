// Package job defines the work items exchanged between the restore
// orchestrator and its worker pool.
package job

import "github.com/steveyegge/dbloader/internal/queue"

// Kind tags the variant carried by a Job.
type Kind int

const (
	// KindRestoreFilename replays a dump file on the worker's connection.
	KindRestoreFilename Kind = iota
	// KindRestoreString executes an in-memory statement (a deferred index
	// or constraint ALTER produced by the CREATE TABLE rewriter).
	KindRestoreString
	// KindWait parks the worker at a barrier until released.
	KindWait
	// KindShutdown closes the worker's connection and ends its loop.
	KindShutdown
)

// RestoreJob carries the attributes of one unit of restore work. Filename is
// empty for in-memory statements; Statement is empty for file-backed jobs.
type RestoreJob struct {
	Filename  string
	Database  string
	Table     string
	Statement string
	Part      uint64
}

// Job is the tagged-union envelope pushed onto the main queue.
type Job struct {
	Kind    Kind
	Restore *RestoreJob
	Barrier *queue.Barrier
}

// RestoreFilename builds a Job that replays rj's file.
func RestoreFilename(rj *RestoreJob) *Job {
	return &Job{Kind: KindRestoreFilename, Restore: rj}
}

// RestoreString builds a Job that executes rj's in-memory statement.
func RestoreString(rj *RestoreJob) *Job {
	return &Job{Kind: KindRestoreString, Restore: rj}
}

// Wait builds a Job that parks the receiving worker at b.
func Wait(b *queue.Barrier) *Job {
	return &Job{Kind: KindWait, Barrier: b}
}

// Shutdown builds the terminal job for a worker.
func Shutdown() *Job {
	return &Job{Kind: KindShutdown}
}
