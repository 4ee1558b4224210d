package model

import (
	"time"

	"gorm.io/gorm"
)

type TriggerSource string

const (
	TriggerManual   TriggerSource = "MANUAL"
	TriggerSchedule TriggerSource = "SCHEDULE"
)

// Trigger records a scrape run started through jobdash.
type Trigger struct {
	gorm.Model
	RunID       string
	Scrapers    string        `gorm:"not null"`
	DBMode      string        `gorm:"not null"`
	Source      TriggerSource `gorm:"not null"`
	Actor       string
	ErrMsg      string
	TriggeredAt time.Time `gorm:"not null"`
}

// Cookie is a backend cookie persisted between CLI invocations.
type Cookie struct {
	gorm.Model
	BaseURL string `gorm:"not null;uniqueIndex:idx_cookie_key"`
	Name    string `gorm:"not null;uniqueIndex:idx_cookie_key"`
	Value   string `gorm:"not null"`
	Path    string
	Expires *time.Time
}
