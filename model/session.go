package model

import "time"

// SessionVersion is written to every saved session document.
const SessionVersion = "1.0"

// Metadata is free-form and only carried through.
type Metadata struct {
	Name        string `json:"name" yaml:"name"`
	Created     string `json:"created" yaml:"created"`
	Description string `json:"description" yaml:"description"`
}

// Session is a named snapshot of the whole mix. Track order is the mixer
// display order.
type Session struct {
	Version  string       `json:"version" yaml:"version"`
	Tracks   []TrackState `json:"tracks" yaml:"tracks"`
	Metadata Metadata     `json:"metadata" yaml:"metadata"`
}

// SessionInfo summarizes a stored session without its tracks.
type SessionInfo struct {
	Name       string   `json:"name"`
	TrackCount int      `json:"track_count"`
	Metadata   Metadata `json:"metadata"`
}

// SessionRecord is the relational row used by the SQL session stores.
type SessionRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:191;uniqueIndex;not null"`
	Document  string    `gorm:"type:longtext;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name used by GORM.
func (SessionRecord) TableName() string {
	return "sessions"
}
