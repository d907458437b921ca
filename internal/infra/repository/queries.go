package repository

import (
	"partypics-app/internal/domain/sharedmedia"

	"gorm.io/gorm"
)

// metadataColumns never includes the image payload.
var metadataColumns = []string{"id", "author", "title", "state", "tournament_id"}

func tournamentMediaQuery(db *gorm.DB, tournamentID uint) *gorm.DB {
	return db.Model(&sharedmedia.SharedMedia{}).
		Where("tournament_id = ?", tournamentID)
}

func inStatesQuery(db *gorm.DB, states []sharedmedia.MediaState) *gorm.DB {
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.String())
	}
	return db.Where("state IN ?", names)
}
