package models

import "time"

// CodingSessionRecord is the locally stored state of an interview session.
type CodingSessionRecord struct {
	ID        string `gorm:"primaryKey;size:64"`
	PostTitle string `gorm:"size:255"`
	Status    string `gorm:"size:32;default:in_progress"`
	RoundType string `gorm:"size:32;default:coding"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CodingSessionRecord) TableName() string {
	return "coding_sessions"
}

// CodingInteractionRecord stores one problem of a session with the candidate's latest code and score.
type CodingInteractionRecord struct {
	ID              uint   `gorm:"primaryKey"`
	SessionID       string `gorm:"size:64;not null;uniqueIndex:idx_session_problem"`
	ProblemID       string `gorm:"size:128;not null;uniqueIndex:idx_session_problem"`
	Position        int    `gorm:"not null;default:0"`
	Title           string `gorm:"size:255"`
	Question        string `gorm:"type:text;not null"`
	StarterCode     string `gorm:"type:text"`
	Code            string `gorm:"type:text"`
	Language        string `gorm:"size:32"`
	AssistanceCount int    `gorm:"not null;default:0"`
	ExamplesJSON    string `gorm:"type:text"`
	Score           *float64
	Feedback        *string `gorm:"type:text"`
	ScoredAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CodingInteractionRecord) TableName() string {
	return "coding_interactions"
}
