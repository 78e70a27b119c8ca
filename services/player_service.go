package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/Dosada05/beach-tennis-live/storage"
)

// PlayerService — реестр атлетов. Размер фото ограничивает обработчик.
type PlayerService interface {
	CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error)
	GetPlayer(ctx context.Context, id string) (*models.Player, error)
	ListPlayers(ctx context.Context) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, id string, input PlayerUpdateInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, id string) error
	UploadPhoto(ctx context.Context, id string, contentType string, file io.Reader) (*models.Player, error)
}

type PlayerInput struct {
	Name     string          `json:"name"`
	Phone    *string         `json:"phone,omitempty"`
	Category models.Category `json:"category"`
	Email    *string         `json:"email,omitempty"`
}

type PlayerUpdateInput struct {
	Name     *string          `json:"name,omitempty"`
	Phone    *string          `json:"phone,omitempty"`
	Category *models.Category `json:"category,omitempty"`
	Email    *string          `json:"email,omitempty"`
}

type playerService struct {
	store    repositories.DocumentStore
	uploader storage.FileUploader
	logger   *slog.Logger
}

// NewPlayerService builds the athlete registry. uploader may be nil, then
// UploadPhoto fails with ErrStorageUnavailable.
func NewPlayerService(store repositories.DocumentStore, uploader storage.FileUploader, logger *slog.Logger) PlayerService {
	return &playerService{
		store:    store,
		uploader: uploader,
		logger:   logger,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input PlayerInput) (*models.Player, error) {
	name, err := validatePlayerName(input.Name)
	if err != nil {
		return nil, err
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidationFailed, input.Category)
	}

	player := models.Player{
		Name:     name,
		Phone:    trimmedPtr(input.Phone),
		Category: input.Category,
		Email:    trimmedPtr(input.Email),
	}
	id, err := s.store.Create(ctx, models.CollectionPlayers, player)
	if err != nil {
		return nil, storeError(err, ErrPlayerNotFound)
	}
	player.ID = id
	return &player, nil
}

func (s *playerService) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	return getRecord[models.Player](ctx, s.store, models.CollectionPlayers, id, ErrPlayerNotFound)
}

func (s *playerService) ListPlayers(ctx context.Context) ([]models.Player, error) {
	players, err := listRecords[models.Player](ctx, s.store, models.CollectionPlayers, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

// UpdatePlayer does not touch matches already holding a copy of the player.
func (s *playerService) UpdatePlayer(ctx context.Context, id string, input PlayerUpdateInput) (*models.Player, error) {
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := repositories.Fields{}
	if input.Name != nil {
		name, err := validatePlayerName(*input.Name)
		if err != nil {
			return nil, err
		}
		player.Name = name
		fields["name"] = name
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidationFailed, *input.Category)
		}
		player.Category = *input.Category
		fields["category"] = *input.Category
	}
	if input.Phone != nil {
		player.Phone = trimmedPtr(input.Phone)
		fields["phone"] = player.Phone
	}
	if input.Email != nil {
		player.Email = trimmedPtr(input.Email)
		fields["email"] = player.Email
	}
	if len(fields) == 0 {
		return player, nil
	}

	if err := s.store.Update(ctx, models.CollectionPlayers, id, fields); err != nil {
		return nil, storeError(err, ErrPlayerNotFound)
	}
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, models.CollectionPlayers, id); err != nil {
		return storeError(err, ErrPlayerNotFound)
	}
	return nil
}

func (s *playerService) UploadPhoto(ctx context.Context, id string, contentType string, file io.Reader) (*models.Player, error) {
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}
	ext, err := GetExtensionFromContentType(contentType)
	if err != nil {
		return nil, err
	}
	player, err := s.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	key := storage.PlayerPhotoKey(id, ext)
	uploaded, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo of player %s: %w", id, err)
	}

	old := derefString(player.PhotoURL)
	if err := s.store.Update(ctx, models.CollectionPlayers, id, repositories.Fields{"photoUrl": uploaded.Location}); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned photo", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, storeError(err, ErrPlayerNotFound)
	}

	// Фото с другим расширением остаётся под старым ключом, удаляем его.
	if old != "" && old != uploaded.Location {
		if oldKey, ok := storage.KeyFromURL(strings.TrimSuffix(uploaded.Location, key), old); ok {
			if err := s.uploader.Delete(ctx, oldKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
				s.logger.WarnContext(ctx, "failed to remove previous photo", slog.String("key", oldKey), slog.Any("error", err))
			}
		}
	}

	player.PhotoURL = &uploaded.Location
	return player, nil
}

func validatePlayerName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if len([]rune(name)) < 2 {
		return "", fmt.Errorf("%w: player name must have at least 2 characters", ErrValidationFailed)
	}
	return name, nil
}
