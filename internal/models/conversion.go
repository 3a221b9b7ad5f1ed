package models

import (
	"time"

	"github.com/google/uuid"
)

// Conversion is one text-to-speech request and its stored audio artifact.
type Conversion struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Text      string    `json:"text" db:"text"`
	Language  string    `json:"language" db:"language"`
	Filename  string    `json:"filename" db:"filename"`
	AudioPath string    `json:"audio_path" db:"audio_path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
