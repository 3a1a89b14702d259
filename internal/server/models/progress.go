package models

// ProgressState is the ephemeral state a worker reports for an active job.
type ProgressState string

const (
	ProgressInProgress ProgressState = "IN_PROGRESS"
	ProgressSuccess    ProgressState = "SUCCESS"
	ProgressError      ProgressState = "ERROR"
)

// IsFinal reports whether the worker will make no further progress.
func (s ProgressState) IsFinal() bool {
	return s == ProgressSuccess || s == ProgressError
}

// FileTransferStateFromProgress converts a worker-reported progress state
// into its durable counterpart. The mapping is total: any state a worker
// can report maps to a durable state.
func FileTransferStateFromProgress(s ProgressState) FileTransferState {
	switch s {
	case ProgressSuccess:
		return TransferSuccess
	case ProgressError:
		return TransferError
	default:
		return TransferInProgress
	}
}

// TransferProgress is the ephemeral value returned to a polling client.
type TransferProgress struct {
	State           ProgressState `json:"state"`
	Percent         float64       `json:"percent"`
	TransferredSize int64         `json:"transferredSize"`
	TotalSize       int64         `json:"totalSize"`
	Message         string        `json:"message,omitempty"`
}
