package sharedmedia

import (
	"time"

	"partypics-app/internal/domain/tournaments"
)

const (
	MaxAuthorLength = 30
	MaxTitleLength  = 50

	MaxImageBytes  = 5 * 1024 * 1024
	MaxImageWidth  = 1920 * 4
	MaxImageHeight = 1080 * 4
)

// SharedMedia is one uploaded party picture with its moderation state.
type SharedMedia struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Author string `gorm:"type:varchar(30);not null" json:"author"`
	Title  string `gorm:"type:varchar(50);not null" json:"title"`

	Image       []byte `gorm:"type:bytea;not null" json:"-"`
	ContentType string `gorm:"type:varchar(32);not null;default:'image/jpeg'" json:"contentType"`

	TournamentID uint                    `gorm:"not null;index:idx_shared_media_tournament_state,priority:1" json:"tournamentId"`
	Tournament   *tournaments.Tournament `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	State MediaState `gorm:"type:varchar(16);not null;default:'PENDING';index:idx_shared_media_tournament_state,priority:2" json:"state"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (SharedMedia) TableName() string {
	return "shared_media"
}

// Metadata is a SharedMedia row without its image payload.
type Metadata struct {
	ID           uint       `json:"id"`
	Author       string     `json:"author"`
	Title        string     `json:"title"`
	State        MediaState `json:"state"`
	TournamentID uint       `json:"tournamentId"`
}

func (m *SharedMedia) Metadata() Metadata {
	return Metadata{
		ID:           m.ID,
		Author:       m.Author,
		Title:        m.Title,
		State:        m.State,
		TournamentID: m.TournamentID,
	}
}
