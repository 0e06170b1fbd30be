package repository

import (
	"context"
	"time"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdatesRepository records processed inbound update ids, converting
// at-least-once delivery into at-most-once handling across instances.
type UpdatesRepository struct {
	db     *gorm.DB
	config *RetentionConfig
}

func NewUpdatesRepository(db *gorm.DB, config *RetentionConfig) *UpdatesRepository {
	return &UpdatesRepository{db: db, config: config}
}

// MarkProcessed reports whether this is the first time the update id is seen.
// The insert races against other instances; ON CONFLICT DO NOTHING makes the
// loser observe a duplicate.
func (x *UpdatesRepository) MarkProcessed(log *tracing.Logger, updateID int64) (bool, error) {
	defer tracing.ProfilePoint(log, "Updates mark processed completed", "repository.updates.mark", tracing.UpdateId, updateID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "update_id"}}, DoNothing: true}).
		Create(&entities.ProcessedUpdate{UpdateID: updateID, ProcessedAt: time.Now()})
	if result.Error != nil {
		log.E("Failed to mark update processed", tracing.InnerError, result.Error)
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (x *UpdatesRepository) CleanupOld(log *tracing.Logger) (int64, error) {
	defer tracing.ProfilePoint(log, "Updates cleanup completed", "repository.updates.cleanup")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -x.config.UpdatesRetentionDays)
	result := x.db.WithContext(ctx).
		Where("processed_at < ?", cutoff).
		Delete(&entities.ProcessedUpdate{})
	if result.Error != nil {
		log.E("Failed to cleanup processed updates", tracing.InnerError, result.Error)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		log.I("Cleaned up processed updates", "count", result.RowsAffected, "retention_days", x.config.UpdatesRetentionDays)
	}
	return result.RowsAffected, nil
}
