package repository

import (
	"context"
	"errors"
	"fmt"

	"partypics-app/internal/domain/sharedmedia"
	"partypics-app/internal/domain/tournaments"

	"gorm.io/gorm"
)

// TournamentRepository reads tournaments owned by the tournament subsystem.
type TournamentRepository struct {
	db *gorm.DB
}

func NewTournamentRepository(db *gorm.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func (r *TournamentRepository) FindTournament(ctx context.Context, id uint) (*tournaments.Tournament, error) {
	var t tournaments.Tournament
	err := r.db.WithContext(ctx).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: tournament %d", sharedmedia.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

