// Package models holds the relay's gorm schema.
package models

import "time"

// Session is one chat. Terminated only ever goes from false to true.
type Session struct {
	ID                string    `gorm:"primaryKey;size:36"`
	MaxParticipants   int       `gorm:"not null"`
	MessageTTLSeconds int       `gorm:"not null"`
	CreatedAt         time.Time `gorm:"not null"`
	ExpiresAt         time.Time `gorm:"index;not null"`
	Terminated        bool      `gorm:"index;not null;default:false"`
}

type Participant struct {
	ID          uint      `gorm:"primaryKey"`
	SessionID   string    `gorm:"uniqueIndex:idx_participant_session_anon;size:36;not null"`
	AnonymousID string    `gorm:"uniqueIndex:idx_participant_session_anon;size:64;not null"`
	JoinedAt    time.Time `gorm:"not null"`
}

// Message rows carry only ciphertext; the relay never sees keys.
type Message struct {
	ID                string    `gorm:"primaryKey;size:36"`
	Seq               uint64    `gorm:"index:idx_msg_session_seq;not null"`
	SessionID         string    `gorm:"index:idx_msg_session_seq;size:36;not null"`
	Ciphertext        string    `gorm:"not null"`
	Kind              string    `gorm:"size:16;not null"`
	SenderAnonymousID string    `gorm:"size:64;not null"`
	CreatedAt         time.Time `gorm:"not null"`
	ExpiresAt         time.Time `gorm:"index;not null"`
}

// All lists every model for migration.
func All() []any {
	return []any{&Session{}, &Participant{}, &Message{}}
}
