package repository

import (
	"context"
	"errors"
	"time"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrLeaseNotFound = errors.New("instance lease not found")
)

// LeaseRepository persists the single-row deployment lease. All comparisons
// use the database clock so instances with skewed local clocks cannot steal
// a live lease.
type LeaseRepository struct {
	db *gorm.DB
}

func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

// TryAcquire claims the lease if the row is absent, expired, or already held
// by this instance. Both paths are single atomic statements.
func (x *LeaseRepository) TryAcquire(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error) {
	defer tracing.ProfilePoint(log, "Lease try acquire completed", "repository.lease.acquire", tracing.LeaseHolder, holderID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	seconds := ttl.Seconds()

	insert := x.db.WithContext(ctx).Model(&entities.InstanceLease{}).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(map[string]any{
			"name":          name,
			"holder_id":     holderID,
			"expires_at":    gorm.Expr("NOW() + make_interval(secs => ?)", seconds),
			"heartbeat_seq": 0,
		})
	if insert.Error != nil {
		log.E("Failed to insert lease row", tracing.InnerError, insert.Error)
		return false, insert.Error
	}
	if insert.RowsAffected == 1 {
		log.I("Lease acquired (fresh row)", tracing.LeaseHolder, holderID)
		return true, nil
	}

	result := x.db.WithContext(ctx).Model(&entities.InstanceLease{}).
		Where("name = ? AND (expires_at < NOW() OR holder_id = ?)", name, holderID).
		Updates(map[string]any{
			"holder_id":     holderID,
			"expires_at":    gorm.Expr("NOW() + make_interval(secs => ?)", seconds),
			"heartbeat_seq": gorm.Expr("heartbeat_seq + 1"),
		})
	if result.Error != nil {
		log.E("Failed to claim lease", tracing.InnerError, result.Error)
		return false, result.Error
	}

	acquired := result.RowsAffected == 1
	if acquired {
		log.I("Lease acquired", tracing.LeaseHolder, holderID)
	}
	return acquired, nil
}

// Heartbeat extends a lease still held by this instance. A zero row count
// means the lease expired or was taken over and must be treated as lost.
func (x *LeaseRepository) Heartbeat(log *tracing.Logger, name, holderID string, ttl time.Duration) (bool, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.InstanceLease{}).
		Where("name = ? AND holder_id = ? AND expires_at >= NOW()", name, holderID).
		Updates(map[string]any{
			"expires_at":    gorm.Expr("NOW() + make_interval(secs => ?)", ttl.Seconds()),
			"heartbeat_seq": gorm.Expr("heartbeat_seq + 1"),
		})
	if result.Error != nil {
		log.E("Failed to heartbeat lease", tracing.InnerError, result.Error)
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Release drops the lease row so a replacement instance can claim it without
// waiting for expiry.
func (x *LeaseRepository) Release(log *tracing.Logger, name, holderID string) error {
	defer tracing.ProfilePoint(log, "Lease release completed", "repository.lease.release", tracing.LeaseHolder, holderID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).
		Where("name = ? AND holder_id = ?", name, holderID).
		Delete(&entities.InstanceLease{})
	if result.Error != nil {
		log.E("Failed to release lease", tracing.InnerError, result.Error)
		return result.Error
	}

	if result.RowsAffected == 1 {
		log.I("Lease released", tracing.LeaseHolder, holderID)
	} else {
		log.W("Lease was not held at release time", tracing.LeaseHolder, holderID)
	}
	return nil
}

func (x *LeaseRepository) Current(log *tracing.Logger, name string) (*entities.InstanceLease, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var lease entities.InstanceLease
	err := x.db.WithContext(ctx).Where("name = ?", name).First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLeaseNotFound
	}
	if err != nil {
		log.E("Failed to get lease", tracing.InnerError, err)
		return nil, err
	}
	return &lease, nil
}
