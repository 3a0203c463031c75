package sqldb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/streamoverlay/server/internal/repository/overlay"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type overlayRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	Type      string `gorm:"size:16;not null"`
	Content   string `gorm:"not null;default:''"`
	X         int
	Y         int
	Width     int
	Height    int
	Opacity   float64
	Rotation  float64
	ZIndex    int `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (overlayRecord) TableName() string {
	return "overlays"
}

type repo struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open connects to driver ("sqlite" or "postgres") and migrates the schema.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&overlayRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return db, nil
}

func NewRepo(db *gorm.DB, logger *slog.Logger) *repo {
	return &repo{db: db, logger: logger}
}

func (r repo) SetOverlay(ctx context.Context, params *overlay.SetOverlayParams) error {
	rec := overlayRecord{
		ID:       params.ID,
		Type:     params.Type,
		Content:  params.Content,
		X:        params.X,
		Y:        params.Y,
		Width:    params.Width,
		Height:   params.Height,
		Opacity:  params.Opacity,
		Rotation: params.Rotation,
		ZIndex:   params.ZIndex,
	}

	return r.db.WithContext(ctx).Save(&rec).Error
}

func (r repo) GetOverlay(ctx context.Context, overlayID string) (overlay.Overlay, error) {
	var rec overlayRecord
	err := r.db.WithContext(ctx).Where("id = ?", overlayID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return overlay.Overlay{}, overlay.ErrOverlayNotFound
	}
	if err != nil {
		return overlay.Overlay{}, err
	}

	return rec.toOverlay(), nil
}

// ListOverlays returns every overlay ordered by ascending z-index, then by creation.
func (r repo) ListOverlays(ctx context.Context) ([]overlay.Overlay, error) {
	var recs []overlayRecord
	if err := r.db.WithContext(ctx).Order("z_index asc").Order("created_at asc").Find(&recs).Error; err != nil {
		return nil, err
	}

	overlays := make([]overlay.Overlay, 0, len(recs))
	for _, rec := range recs {
		overlays = append(overlays, rec.toOverlay())
	}

	return overlays, nil
}

func (r repo) UpdateOverlay(ctx context.Context, params *overlay.UpdateOverlayParams) error {
	updates := updateColumns(params)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec overlayRecord
		err := tx.Select("id").Where("id = ?", params.ID).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return overlay.ErrOverlayNotFound
		}
		if err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&overlayRecord{}).Where("id = ?", params.ID).Updates(updates).Error
	})
}

func (r repo) RemoveOverlay(ctx context.Context, overlayID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", overlayID).Delete(&overlayRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return overlay.ErrOverlayNotFound
	}

	return nil
}

func updateColumns(params *overlay.UpdateOverlayParams) map[string]any {
	updates := make(map[string]any)
	if params.Type != nil {
		updates["type"] = *params.Type
	}
	if params.Content != nil {
		updates["content"] = *params.Content
	}
	if params.X != nil {
		updates["x"] = *params.X
	}
	if params.Y != nil {
		updates["y"] = *params.Y
	}
	if params.Width != nil {
		updates["width"] = *params.Width
	}
	if params.Height != nil {
		updates["height"] = *params.Height
	}
	if params.Opacity != nil {
		updates["opacity"] = *params.Opacity
	}
	if params.Rotation != nil {
		updates["rotation"] = *params.Rotation
	}
	if params.ZIndex != nil {
		updates["z_index"] = *params.ZIndex
	}

	return updates
}

func (rec overlayRecord) toOverlay() overlay.Overlay {
	return overlay.Overlay{
		ID:       rec.ID,
		Type:     rec.Type,
		Content:  rec.Content,
		X:        rec.X,
		Y:        rec.Y,
		Width:    rec.Width,
		Height:   rec.Height,
		Opacity:  rec.Opacity,
		Rotation: rec.Rotation,
		ZIndex:   rec.ZIndex,
	}
}
