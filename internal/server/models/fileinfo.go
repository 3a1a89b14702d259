package models

import "time"

// FileInfo is the client-facing view of a File record.
type FileInfo struct {
	Name          string            `json:"name"`
	OriginalName  string            `json:"originalName"`
	DisplayName   string            `json:"displayName"`
	Type          FileType          `json:"type"`
	Size          int64             `json:"size"`
	TransferState FileTransferState `json:"transferState"`
	Shared        bool              `json:"shared"`
	Downloadable  bool              `json:"downloadable"`
	UserID        string            `json:"userId"`
	CreationTime  time.Time         `json:"creationTime"`
}

// NewFileInfo builds the view for one record. DisplayName falls back to
// OriginalName when blank.
func NewFileInfo(f *File) FileInfo {
	display := f.DisplayName
	if display == "" {
		display = f.OriginalName
	}
	return FileInfo{
		Name:          f.Name,
		OriginalName:  f.OriginalName,
		DisplayName:   display,
		Type:          f.Type,
		Size:          f.Size,
		TransferState: f.TransferState,
		Shared:        f.Shared,
		Downloadable:  false,
		UserID:        f.UserID,
		CreationTime:  f.CreationTime,
	}
}

// PageView wraps one page of a listing.
type PageView[T any] struct {
	TotalSize int `json:"totalSize"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	Data      []T `json:"data"`
}
