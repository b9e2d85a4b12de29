package models

import "time"

const (
	ContentTypePDF   = "application/pdf"
	MaxFileSizeBytes = int64(20 * 1024 * 1024) // 20 MiB
)

// UploadedFile is a PDF held in transient storage until it is processed.
type UploadedFile struct {
	ID         string    `json:"fileId"`
	Name       string    `json:"fileName"`
	Size       int64     `json:"fileSize"`
	Path       string    `json:"filePath"`
	UploadedAt time.Time `json:"-"`
}
