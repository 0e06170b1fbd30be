package repository

import (
	"context"
	"errors"
	"time"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/platform"
	"modelkiosk/sources/tracing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

type UsersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// UpsertUser creates the user on first contact and refreshes mutable profile
// fields after that. Never fails on duplicate creation.
func (x *UsersRepository) UpsertUser(log *tracing.Logger, euid int64, uname *string, ufullname *string) (*entities.User, error) {
	defer tracing.ProfilePoint(log, "Users upsert completed", "repository.users.upsert", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	user := &entities.User{
		UserID:   euid,
		Username: uname,
		Fullname: ufullname,
		IsActive: platform.BoolPtr(true),
	}

	err := x.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"username":   uname,
			"fullname":   ufullname,
			"updated_at": time.Now(),
		}),
	}).Create(user).Error
	if err != nil {
		log.E("Failed to upsert user", tracing.InnerError, err)
		return nil, err
	}

	return x.GetUserByEid(log, euid)
}

func (x *UsersRepository) GetUserByEid(log *tracing.Logger, euid int64) (*entities.User, error) {
	defer tracing.ProfilePoint(log, "Users get by eid completed", "repository.users.get.by.eid", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var user entities.User
	err := x.db.WithContext(ctx).Where("user_id = ?", euid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.W("User not found when expected")
			return nil, ErrUserNotFound
		}
		log.E("Failed to get user", tracing.InnerError, err)
		return nil, err
	}

	return &user, nil
}

// Credit tops up the stored balance. Admin path.
func (x *UsersRepository) Credit(log *tracing.Logger, euid int64, amount decimal.Decimal) error {
	defer tracing.ProfilePoint(log, "Users credit completed", "repository.users.credit", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.User{}).
		Where("user_id = ?", euid).
		Update("balance", gorm.Expr("balance + ?", amount))
	if result.Error != nil {
		log.E("Failed to credit user", tracing.InnerError, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	log.I("User credited", tracing.ChargeAmount, amount)
	return nil
}

// UseReferralCredit consumes one referral-free use. The decrement is a
// conditional update so the counter can never go below zero, even under
// concurrent generations.
func (x *UsersRepository) UseReferralCredit(log *tracing.Logger, euid int64) (bool, error) {
	defer tracing.ProfilePoint(log, "Users use referral credit completed", "repository.users.referral.use", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.User{}).
		Where("user_id = ? AND referral_free_uses > 0", euid).
		Update("referral_free_uses", gorm.Expr("referral_free_uses - 1"))
	if result.Error != nil {
		log.E("Failed to use referral credit", tracing.InnerError, result.Error)
		return false, result.Error
	}

	used := result.RowsAffected == 1
	if used {
		log.I("Referral credit used")
	}
	return used, nil
}

// RefundReferralCredit compensates a failed generation that consumed a
// referral credit.
func (x *UsersRepository) RefundReferralCredit(log *tracing.Logger, euid int64) error {
	defer tracing.ProfilePoint(log, "Users refund referral credit completed", "repository.users.referral.refund", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.User{}).
		Where("user_id = ?", euid).
		Update("referral_free_uses", gorm.Expr("referral_free_uses + 1"))
	if result.Error != nil {
		log.E("Failed to refund referral credit", tracing.InnerError, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	log.I("Referral credit refunded")
	return nil
}

func (x *UsersRepository) GrantReferralCredits(log *tracing.Logger, euid int64, count int, maxAmount decimal.Decimal) error {
	defer tracing.ProfilePoint(log, "Users grant referral credits completed", "repository.users.referral.grant", tracing.UserId, euid)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.User{}).
		Where("user_id = ?", euid).
		Updates(map[string]any{
			"referral_free_uses":  gorm.Expr("referral_free_uses + ?", count),
			"referral_max_amount": maxAmount,
		})
	if result.Error != nil {
		log.E("Failed to grant referral credits", tracing.InnerError, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	log.I("Referral credits granted", "count", count)
	return nil
}

func (x *UsersRepository) GetTotalUsersCount(log *tracing.Logger) (int64, error) {
	defer tracing.ProfilePoint(log, "Users count completed", "repository.users.count")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var count int64
	if err := x.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error; err != nil {
		log.E("Failed to count users", tracing.InnerError, err)
		return 0, err
	}
	return count, nil
}
