package models

import (
	"strings"
	"time"
)

// CreativeType is the asset kind of a creative.
type CreativeType string

const (
	CreativeBanner     CreativeType = "banner"
	CreativeVideo      CreativeType = "video"
	CreativeTagTracker CreativeType = "TagTracker"
	CreativeKeyword    CreativeType = "keyword"
)

// Creative is an uploaded asset that campaigns attach.
type Creative struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user"`
	Name         string       `json:"name"`
	CreativeType CreativeType `json:"creative_type"`
	ObjectKey    string       `json:"-"`
	FileURL      string       `json:"file"`
	Description  string       `json:"description,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Validate checks required fields before the asset is stored.
func (c *Creative) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "name is required")
	}
	switch c.CreativeType {
	case "":
		c.CreativeType = CreativeBanner
	case CreativeBanner, CreativeVideo, CreativeTagTracker, CreativeKeyword:
	default:
		return NewValidationError("creative_type", "unknown creative type "+string(c.CreativeType))
	}
	return nil
}
