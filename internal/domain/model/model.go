// Package model contains domain models passed between layers.
package model

import "time"

// Point is a single vertex of an OCR bounding region.
type Point struct {
	X float64
	Y float64
}

// Fragment is one recognized text fragment from the OCR provider,
// carrying its raw text and bounding polygon. The first fragment of a
// response is conventionally the full-page text.
type Fragment struct {
	Text     string
	Vertices []Point
}

// ScoreRecord is a single score submission. Rows are immutable once
// written except through the explicit correction flow.
type ScoreRecord struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"index;size:64;not null"`
	Value      float64   `gorm:"column:score;not null"`
	SongName   *string   `gorm:"size:255"`
	ArtistName *string   `gorm:"size:255"`
	Comment    *string   `gorm:"size:1024"`
	CreatedAt  time.Time `gorm:"index;not null"`
}

// TableName maps ScoreRecord onto the scores table.
func (ScoreRecord) TableName() string { return "scores" }

// User is a registered chat user.
type User struct {
	ID          string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255"`
	UserCode    string `gorm:"uniqueIndex;size:16"`
	ScoreCount  int
	LastScoreAt *time.Time
}

// TableName maps User onto the users table.
func (User) TableName() string { return "users" }

// Artist is a registered artist, optionally enriched with lookup metadata.
type Artist struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	Name          string  `gorm:"uniqueIndex;size:255;not null"`
	MusicBrainzID *string `gorm:"uniqueIndex;size:64"`
	GenreTags     string  `gorm:"size:1024"`
	CreatedAt     time.Time
}

// TableName maps Artist onto the artists table.
func (Artist) TableName() string { return "artists" }

// Submission is the parsed outcome of one score-screen photo.
type Submission struct {
	Score      float64
	SongName   *string
	ArtistName *string
}

// ArtistJob is a queued artist registration request.
type ArtistJob struct {
	JobID string
	Name  string
}
