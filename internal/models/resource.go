package models

import "time"

// Resource stores metadata about a learning material uploaded for a class or subject.
type Resource struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	FileURL     string    `gorm:"size:512;not null" json:"file_url"`
	FileName    string    `gorm:"size:255;not null" json:"file_name"`
	MimeType    string    `gorm:"size:128;not null" json:"mime_type"`
	SizeBytes   int64     `gorm:"not null" json:"size_bytes"`
	Checksum    string    `gorm:"size:128;index" json:"checksum"`
	SubjectID   *uint     `gorm:"index" json:"subject_id"`
	ClassID     *uint     `gorm:"index" json:"class_id"`
	UploadedBy  uint      `gorm:"index" json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
