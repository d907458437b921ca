package sharedmedia

import "partypics-app/internal/domain/sharedmedia"

// CreateRequest is the sharedMediaCreateDto part of an upload.
type CreateRequest struct {
	Author       string `json:"author" form:"author" binding:"required"`
	Title        string `json:"title" form:"title" binding:"required"`
	TournamentID uint   `json:"tournamentId" form:"tournamentId" binding:"required"`
}

type UpdateStateRequest struct {
	State sharedmedia.MediaState `json:"state" binding:"required"`
}

type MetadataDTO struct {
	ID           uint   `json:"id"`
	Author       string `json:"author"`
	Title        string `json:"title"`
	State        string `json:"state"`
	TournamentID uint   `json:"tournamentId"`
}

func toMetadataDTO(m sharedmedia.Metadata) MetadataDTO {
	return MetadataDTO{
		ID:           m.ID,
		Author:       m.Author,
		Title:        m.Title,
		State:        m.State.String(),
		TournamentID: m.TournamentID,
	}
}

func toMetadataDTOs(items []sharedmedia.Metadata) []MetadataDTO {
	out := make([]MetadataDTO, 0, len(items))
	for _, m := range items {
		out = append(out, toMetadataDTO(m))
	}
	return out
}
