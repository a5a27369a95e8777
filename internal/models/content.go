package models

import (
	"strings"
	"time"
)

// ContentStatus is the publication state of a content page.
type ContentStatus string

const (
	// ContentStatusDraft marks a page that is not yet visible.
	ContentStatusDraft ContentStatus = "draft"
	// ContentStatusPublished marks a page served to readers.
	ContentStatusPublished ContentStatus = "published"
	// ContentStatusArchived marks a page withdrawn from circulation.
	ContentStatusArchived ContentStatus = "archived"
)

// NormalizeContentStatus coerces arbitrary input into a known status, defaulting to draft.
func NormalizeContentStatus(value string) ContentStatus {
	switch ContentStatus(strings.ToLower(strings.TrimSpace(value))) {
	case ContentStatusPublished:
		return ContentStatusPublished
	case ContentStatusArchived:
		return ContentStatusArchived
	default:
		return ContentStatusDraft
	}
}

// ContentPage holds the currently rendered state of an editable page, such as
// the school's about page or an exam policy document.
type ContentPage struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	Slug             string        `gorm:"size:160;uniqueIndex;not null" json:"slug"`
	Title            string        `gorm:"size:255;not null" json:"title"`
	Body             string        `gorm:"type:text" json:"body"`
	Status           ContentStatus `gorm:"size:32;not null;default:'draft'" json:"status"`
	CurrentVersionID *uint         `json:"current_version_id"`
	PublishedAt      *time.Time    `gorm:"index" json:"published_at"`
	CreatedBy        uint          `gorm:"index" json:"created_by"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// IsPublished reports whether the page is visible to readers.
func (p ContentPage) IsPublished() bool {
	return p.Status == ContentStatusPublished
}

// ContentVersion is an immutable snapshot of a content page. Version numbers
// increase monotonically per page and exactly one version per page may carry
// the current flag.
type ContentVersion struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ContentPageID uint      `gorm:"not null;uniqueIndex:idx_content_version_page_number" json:"content_page_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_content_version_page_number" json:"version_number"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Body          string    `gorm:"type:text" json:"body"`
	ChangeNote    string    `gorm:"size:512" json:"change_note"`
	IsCurrent     bool      `gorm:"not null;default:false;index" json:"is_current"`
	CreatedBy     uint      `gorm:"index" json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}
