package repository

import (
	"context"
	"errors"
	"fmt"

	"partypics-app/internal/domain/sharedmedia"

	"gorm.io/gorm"
)

// SharedMediaRepository stores shared media rows with gorm.
type SharedMediaRepository struct {
	db *gorm.DB
}

func NewSharedMediaRepository(db *gorm.DB) *SharedMediaRepository {
	return &SharedMediaRepository{db: db}
}

func (r *SharedMediaRepository) Create(ctx context.Context, m *sharedmedia.SharedMedia) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *SharedMediaRepository) FindByID(ctx context.Context, id uint) (*sharedmedia.SharedMedia, error) {
	var m sharedmedia.SharedMedia
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: shared media %d", sharedmedia.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SharedMediaRepository) ListMetadata(ctx context.Context, tournamentID uint, states []sharedmedia.MediaState) ([]sharedmedia.Metadata, error) {
	out := []sharedmedia.Metadata{}
	if len(states) == 0 {
		return out, nil
	}

	q := tournamentMediaQuery(r.db.WithContext(ctx), tournamentID)
	err := inStatesQuery(q, states).
		Select(metadataColumns).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SharedMediaRepository) UpdateState(ctx context.Context, id uint, state sharedmedia.MediaState) error {
	res := r.db.WithContext(ctx).
		Model(&sharedmedia.SharedMedia{}).
		Where("id = ?", id).
		Update("state", state.String())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: shared media %d", sharedmedia.ErrNotFound, id)
	}
	return nil
}
