package sharedmedia

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"partypics-app/internal/domain/notification"
	"partypics-app/internal/domain/tournaments"
)

// Store persists media items. Implementations return errors wrapping
// ErrNotFound for unknown ids.
type Store interface {
	Create(ctx context.Context, m *SharedMedia) error
	FindByID(ctx context.Context, id uint) (*SharedMedia, error)
	ListMetadata(ctx context.Context, tournamentID uint, states []MediaState) ([]Metadata, error)
	UpdateState(ctx context.Context, id uint, state MediaState) error
}

// TournamentLookup resolves tournament ids. Unknown ids wrap ErrNotFound.
type TournamentLookup interface {
	FindTournament(ctx context.Context, id uint) (*tournaments.Tournament, error)
}

// Publisher hands notifications to the relay.
type Publisher interface {
	Publish(ctx context.Context, channel string, n notification.Notification) error
}

// ImageProcessor checks an upload against the type and resolution rules and
// returns the payload to store with its content type. The content type is
// reported on failure too when it could be detected.
type ImageProcessor interface {
	Prepare(data []byte) ([]byte, string, error)
}

// Metrics receives upload, moderation and notification outcomes.
type Metrics interface {
	RecordUpload(contentType, outcome string)
	RecordStateChange(state string)
	RecordNotification(outcome string)
}

type Options struct {
	Metrics Metrics
}

type nopMetrics struct{}

func (nopMetrics) RecordUpload(string, string) {}
func (nopMetrics) RecordStateChange(string)    {}
func (nopMetrics) RecordNotification(string)   {}

type CreateInput struct {
	Author       string
	Title        string
	TournamentID uint
	Image        []byte
}

// Manager owns validation, moderation state and change notifications of
// shared media.
type Manager struct {
	store       Store
	tournaments TournamentLookup
	images      ImageProcessor
	publisher   Publisher
	metrics     Metrics
	log         zerolog.Logger
}

func NewManager(store Store, tournaments TournamentLookup, images ImageProcessor, publisher Publisher, opts Options, log zerolog.Logger) *Manager {
	m := &Manager{
		store:       store,
		tournaments: tournaments,
		images:      images,
		publisher:   publisher,
		metrics:     opts.Metrics,
		log:         log.With().Str("component", "shared-media").Logger(),
	}
	if m.metrics == nil {
		m.metrics = nopMetrics{}
	}
	return m
}

// Create validates an upload and stores it as PENDING.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*SharedMedia, error) {
	if err := validateText("author", in.Author, MaxAuthorLength); err != nil {
		return nil, err
	}
	if err := validateText("title", in.Title, MaxTitleLength); err != nil {
		return nil, err
	}
	if in.TournamentID == 0 {
		return nil, fmt.Errorf("%w: tournament id is required", ErrValidation)
	}

	data, contentType, err := m.validateImage(in.Image)
	if err != nil {
		m.metrics.RecordUpload(contentType, "rejected")
		return nil, err
	}

	tournament, err := m.tournaments.FindTournament(ctx, in.TournamentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: tournament %d", ErrNotFound, in.TournamentID)
		}
		return nil, fmt.Errorf("load tournament %d: %w", in.TournamentID, err)
	}

	item := &SharedMedia{
		Author:       in.Author,
		Title:        in.Title,
		Image:        data,
		ContentType:  contentType,
		TournamentID: tournament.ID,
		State:        StatePending,
	}
	if err := m.store.Create(ctx, item); err != nil {
		m.metrics.RecordUpload(contentType, "failed")
		return nil, fmt.Errorf("store shared media: %w", err)
	}
	m.metrics.RecordUpload(contentType, "accepted")

	m.log.Info().
		Uint("media_id", item.ID).
		Uint("tournament_id", item.TournamentID).
		Str("content_type", contentType).
		Int("bytes", len(data)).
		Msg("shared media uploaded")

	// the message names the author, so it only goes to a known organizer
	if channel := notification.OrganizerChannel(tournament.Organizer); channel != "" {
		m.publish(ctx, channel, notification.New(
			fmt.Sprintf("%s: %s uploaded a new image.", tournament.Name, item.Author),
			tournament.ID,
		))
	}
	return item, nil
}

func validateText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be blank", ErrValidation, field)
	}
	if utf8.RuneCountInString(value) > max {
		return fmt.Errorf("%w: %s can't be more than %d characters long", ErrValidation, field, max)
	}
	return nil
}

func (m *Manager) validateImage(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: image is empty", ErrValidation)
	}
	if len(data) > MaxImageBytes {
		return nil, "", fmt.Errorf("%w: image exceeds %d bytes", ErrValidation, MaxImageBytes)
	}

	out, contentType, err := m.images.Prepare(data)
	if err != nil {
		return nil, contentType, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, contentType, nil
}

// ListByTournament returns image-less metadata in insertion order. With
// publicOnly only approved items are returned, otherwise everything that is
// not deleted.
func (m *Manager) ListByTournament(ctx context.Context, tournamentID uint, publicOnly bool) ([]Metadata, error) {
	items, err := m.store.ListMetadata(ctx, tournamentID, ListableStates(publicOnly))
	if err != nil {
		return nil, fmt.Errorf("list shared media of tournament %d: %w", tournamentID, err)
	}
	return items, nil
}

// GetImage loads an item including its payload for authenticated callers.
func (m *Manager) GetImage(ctx context.Context, id uint) (*SharedMedia, error) {
	item, err := m.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Available(item.State) {
		return nil, fmt.Errorf("%w: shared media %d", ErrNotFound, id)
	}
	return item, nil
}

// GetPublicImage is GetImage for anonymous callers.
func (m *Manager) GetPublicImage(ctx context.Context, id uint) (*SharedMedia, error) {
	item, err := m.GetImage(ctx, id)
	if err != nil {
		return nil, err
	}
	if !PubliclyVisible(item.State) {
		return nil, fmt.Errorf("%w: shared media %d is not public", ErrAccessDenied, id)
	}
	return item, nil
}

// SetState overwrites the moderation state. Any state may follow any other,
// which lets moderators restore deleted or rejected items.
func (m *Manager) SetState(ctx context.Context, id uint, state MediaState) error {
	if !state.Valid() {
		return fmt.Errorf("%w: unknown media state %q", ErrValidation, state)
	}
	item, err := m.find(ctx, id)
	if err != nil {
		return err
	}
	return m.changeState(ctx, item, state)
}

// Delete soft-deletes an item. Already deleted items count as missing.
func (m *Manager) Delete(ctx context.Context, id uint) error {
	item, err := m.find(ctx, id)
	if err != nil {
		return err
	}
	if !Available(item.State) {
		return fmt.Errorf("%w: shared media %d", ErrNotFound, id)
	}
	return m.changeState(ctx, item, StateDeleted)
}

func (m *Manager) changeState(ctx context.Context, item *SharedMedia, state MediaState) error {
	if err := m.store.UpdateState(ctx, item.ID, state); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("update state of shared media %d: %w", item.ID, err)
	}
	m.metrics.RecordStateChange(state.String())

	m.log.Info().
		Uint("media_id", item.ID).
		Str("from", item.State.String()).
		Str("to", state.String()).
		Msg("shared media state changed")

	m.publish(ctx, notification.BroadcastChannel, notification.New(
		fmt.Sprintf("%s by %s is now %s.", item.Title, item.Author, strings.ToLower(state.String())),
		item.TournamentID,
	))
	return nil
}

func (m *Manager) find(ctx context.Context, id uint) (*SharedMedia, error) {
	item, err := m.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load shared media %d: %w", id, err)
	}
	return item, nil
}

// publish is fire-and-forget: a failing relay never fails moderation.
func (m *Manager) publish(ctx context.Context, channel string, n notification.Notification) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.Publish(ctx, channel, n); err != nil {
		m.metrics.RecordNotification("failed")
		m.log.Warn().Err(err).Str("channel", channel).Uint("tournament_id", n.TournamentID).Msg("publish notification")
	}
}
