// Package repository is the data-access layer over the games collection.
// It does no caching of its own; the catalog store layers that on top.
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"retrodrome/backend/internal/models"
)

// GameRepository provides reads and writes against the games table.
type GameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) *GameRepository {
	return &GameRepository{db: db}
}

// List returns every game in the collection. Order is store-defined.
func (r *GameRepository) List(ctx context.Context) ([]models.Game, error) {
	var games []models.Game
	if err := r.db.WithContext(ctx).Find(&games).Error; err != nil {
		return nil, &ReadError{Op: "list", Err: err}
	}
	return games, nil
}

// GetBySlug returns the game whose slug matches, or ErrNotFound. The slug
// column carries a unique index, so at most one row can match.
func (r *GameRepository) GetBySlug(ctx context.Context, slug string) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&game).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ReadError{Op: "get", Err: err}
	}
	return &game, nil
}

// GetByID returns a game by its store-assigned id, or ErrNotFound.
func (r *GameRepository) GetByID(ctx context.Context, id uint) (*models.Game, error) {
	var game models.Game
	err := r.db.WithContext(ctx).First(&game, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &ReadError{Op: "get", Err: err}
	}
	return &game, nil
}

// RateGame sets votes[userID] = rating on the target game as a
// partial-merge write: only the votes column is updated, and existing
// votes from other users are preserved. A repeated vote by the same user
// overwrites the previous value.
func (r *GameRepository) RateGame(ctx context.Context, id uint, userID string, rating int) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, id).Error; err != nil {
			return err
		}

		votes := game.GetVotes()
		votes[userID] = rating
		game.SetVotes(votes)

		return tx.Model(&game).Update("votes", game.Votes).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &WriteError{Op: "rate", Err: ErrNotFound}
	}
	if err != nil {
		return &WriteError{Op: "rate", Err: err}
	}
	return nil
}

// Create inserts a new game.
func (r *GameRepository) Create(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Create(game).Error; err != nil {
		return &WriteError{Op: "create", Err: err}
	}
	return nil
}

// Update saves all fields of an existing game.
func (r *GameRepository) Update(ctx context.Context, game *models.Game) error {
	if err := r.db.WithContext(ctx).Save(game).Error; err != nil {
		return &WriteError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes a game by id, reporting ErrNotFound for unknown ids.
func (r *GameRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Game{}, id)
	if result.Error != nil {
		return &WriteError{Op: "delete", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &WriteError{Op: "delete", Err: ErrNotFound}
	}
	return nil
}

// SeedBatch upserts a fixed list of games keyed by slug: an existing slug
// has its fields replaced, a new slug is inserted. Used by the seed
// utility, not by the server.
func (r *GameRepository) SeedBatch(ctx context.Context, games []models.Game) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "year", "platform", "featured",
			"rom_url", "screenshot_url", "screenshots", "tags", "updated_at",
		}),
	}).Create(&games).Error
	if err != nil {
		return &WriteError{Op: "seed", Err: err}
	}
	return nil
}
