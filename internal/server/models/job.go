package models

import "time"

// JobType is the kind of in-flight work a worker performs.
type JobType string

const (
	JobFileTransfer JobType = "FILE_TRANSFER"
)

// Job is the ephemeral record of in-flight work, keyed by (Type, Target).
// A Job exists only while the work is actively running; its absence means
// the transfer either never started or already reached a final state.
// At most one active Job exists per (Type, Target).
type Job struct {
	Type         JobType
	Target       string
	UserID       string
	HostIP       string
	CreationTime time.Time
}
