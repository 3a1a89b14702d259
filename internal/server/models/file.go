// Package models defines server-side data models persisted in the database
// and the value objects exchanged with workers and clients.
package models

import (
	"fmt"
	"time"

	"filerelay/internal/common"
)

// FileType is the closed set of artifact kinds a worker can hold.
type FileType string

const (
	FileTypeHeapDump   FileType = "HEAP_DUMP"
	FileTypeGCLog      FileType = "GC_LOG"
	FileTypeThreadDump FileType = "THREAD_DUMP"
)

// ParseFileType validates a client-supplied type string.
func ParseFileType(s string) (FileType, error) {
	switch FileType(s) {
	case FileTypeHeapDump, FileTypeGCLog, FileTypeThreadDump:
		return FileType(s), nil
	}
	return "", fmt.Errorf("%w: unknown file type %q", common.ErrIllegalArgument, s)
}

// FileTransferState is the durable lifecycle state of a file's transfer.
// It advances monotonically and never regresses.
type FileTransferState string

const (
	TransferNotStarted FileTransferState = "NOT_STARTED"
	TransferInProgress FileTransferState = "IN_PROGRESS"
	TransferSuccess    FileTransferState = "SUCCESS"
	TransferError      FileTransferState = "ERROR"
)

// IsFinal reports whether no further transition can occur.
func (s FileTransferState) IsFinal() bool {
	return s == TransferSuccess || s == TransferError
}

// Transferred is true only for a successfully completed transfer.
func (s FileTransferState) Transferred() bool {
	return s == TransferSuccess
}

// ToProgressState converts the durable state into the ephemeral progress
// state reported to clients. The mapping is total.
func (s FileTransferState) ToProgressState() ProgressState {
	switch s {
	case TransferSuccess:
		return ProgressSuccess
	case TransferError:
		return ProgressError
	default:
		return ProgressInProgress
	}
}

// Deleter records which role removed a file.
type Deleter string

const (
	DeleterUser  Deleter = "USER"
	DeleterAdmin Deleter = "ADMIN"
)

// File is the durable record of one artifact. Name is globally unique and
// immutable; HostIP is fixed at creation and never migrated, so
// (HostIP, Name) addresses the physical bytes on the worker.
type File struct {
	Name          string
	OriginalName  string
	DisplayName   string
	Type          FileType
	Size          int64
	TransferState FileTransferState
	HostIP        string
	Shared        bool
	UserID        string
	Deleted       bool
	DeletedBy     Deleter
	CreationTime  time.Time
}
