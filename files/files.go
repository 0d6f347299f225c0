package files

import (
	"fmt"
	"time"
)

// Uploader is the subset of the uploading user the backend embeds
type Uploader struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Record is a stored file belonging to a company
type Record struct {
	ID           string    `json:"id"`
	CompanyID    string    `json:"companyId"`
	UploadedByID string    `json:"uploadedById"`
	Key          string    `json:"key"`
	Bucket       string    `json:"bucket"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	ResourceType string    `json:"resourceType,omitempty"`
	ResourceID   string    `json:"resourceId,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitzero"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
	UploadedBy   *Uploader `json:"uploadedBy,omitempty"`
}

type PresignedUploadRequest struct {
	MimeType     string `json:"mimeType"`
	OriginalName string `json:"originalName"`
	ResourceType string `json:"resourceType,omitempty"`
	ResourceID   string `json:"resourceId,omitempty"`
}

type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

type ConfirmUploadRequest struct {
	Key          string `json:"key"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
	ResourceType string `json:"resourceType,omitempty"`
	ResourceID   string `json:"resourceId,omitempty"`
}

// HumanSize renders a byte count using binary units
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
