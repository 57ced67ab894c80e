package entities

import (
	"strings"
	"time"
)

// Attachment references an uploaded file by storage id and/or URL.
// File content itself lives behind the external file service.
type Attachment struct {
	FileID  string `json:"file_id,omitempty"`
	FileURL string `json:"file_url,omitempty"`
}

func (a Attachment) HasReference() bool {
	return strings.TrimSpace(a.FileID) != "" || strings.TrimSpace(a.FileURL) != ""
}

type Application struct {
	ID               string
	OwnerID          string
	Category         string
	SubType          string
	AwardType        string
	AwardLevel       string
	Title            string
	Description      string
	OccurredAt       time.Time
	Attachments      []Attachment
	Status           ApplicationStatus
	ItemScore        *float64
	TotalScore       *float64
	ScoreRuleVersion *string
	Version          int
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// ValidateCreate checks the fields a new submission must carry.
func (a Application) ValidateCreate() bool {
	if strings.TrimSpace(a.Title) == "" ||
		strings.TrimSpace(a.Category) == "" ||
		strings.TrimSpace(a.SubType) == "" {
		return false
	}
	if len(a.Attachments) == 0 {
		return false
	}
	for _, item := range a.Attachments {
		if !item.HasReference() {
			return false
		}
	}
	return true
}
