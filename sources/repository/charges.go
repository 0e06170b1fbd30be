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
	ErrChargeNotFound = errors.New("pending charge not found")
)

type ReserveStatus = string

const (
	ReserveOK           ReserveStatus = "ok"
	ReserveInsufficient ReserveStatus = "insufficient_balance"
	ReservePending      ReserveStatus = "pending_exists"
	ReserveCommitted    ReserveStatus = "already_committed"
	ReserveReleased     ReserveStatus = "already_released"
)

type CommitStatus = string

const (
	CommitDone    CommitStatus = "committed"
	CommitReplay  CommitStatus = "already_committed"
	CommitInvalid CommitStatus = "already_released"
)

type ReleaseStatus = string

const (
	ReleaseDone    ReleaseStatus = "released"
	ReleaseReplay  ReleaseStatus = "already_released"
	ReleaseInvalid ReleaseStatus = "already_committed"
)

// ChargesRepository is the charge ledger. Every transition is a conditional
// single-row update guarded by the current status, so concurrent callers on
// the same tx id cannot double-apply an effect.
type ChargesRepository struct {
	db *gorm.DB
}

func NewChargesRepository(db *gorm.DB) *ChargesRepository {
	return &ChargesRepository{db: db}
}

// Reserve creates a pending charge for tx id, idempotently. When reserved is
// true the available balance (stored balance minus open reservations) is
// checked inside the same transaction that inserts the row.
func (x *ChargesRepository) Reserve(log *tracing.Logger, txID string, userID int64, modelID string, amount decimal.Decimal, reserved bool) (ReserveStatus, error) {
	defer tracing.ProfilePoint(log, "Charges reserve completed", "repository.charges.reserve", tracing.ChargeTx, txID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var status ReserveStatus
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.PendingCharge
		err := tx.Where("tx_id = ?", txID).First(&existing).Error
		if err == nil {
			status = replayStatus(existing.Status)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if reserved {
			// Row lock on the user serializes concurrent reservations for the
			// same balance.
			var user entities.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ?", userID).First(&user).Error; err != nil {
				return err
			}

			var pendingSum decimal.NullDecimal
			err := tx.Model(&entities.PendingCharge{}).
				Where("user_id = ? AND status = ? AND reserved", userID, platform.ChargePending).
				Select("SUM(amount)").Scan(&pendingSum).Error
			if err != nil {
				return err
			}

			available := user.Balance
			if pendingSum.Valid {
				available = available.Sub(pendingSum.Decimal)
			}
			if available.LessThan(amount) {
				status = ReserveInsufficient
				return nil
			}
		}

		charge := &entities.PendingCharge{
			TxID:     txID,
			UserID:   userID,
			ModelID:  modelID,
			Amount:   amount,
			Status:   platform.ChargePending,
			Reserved: reserved,
		}
		result := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tx_id"}}, DoNothing: true}).Create(charge)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the insert race to a concurrent caller with the same tx id.
			if err := tx.Where("tx_id = ?", txID).First(&existing).Error; err != nil {
				return err
			}
			status = replayStatus(existing.Status)
			return nil
		}

		status = ReserveOK
		return nil
	})
	if err != nil {
		log.E("Failed to reserve charge", tracing.InnerError, err, tracing.ChargeTx, txID)
		return "", err
	}

	log.I("Charge reserved", tracing.ChargeTx, txID, tracing.ChargeStatus, status, tracing.ChargeAmount, amount)
	return status, nil
}

func replayStatus(chargeStatus string) ReserveStatus {
	switch chargeStatus {
	case platform.ChargeCommitted:
		return ReserveCommitted
	case platform.ChargeReleased:
		return ReserveReleased
	default:
		return ReservePending
	}
}

// Commit debits the user and marks the charge committed in one transaction.
// Replays return the terminal status without touching the balance again.
func (x *ChargesRepository) Commit(log *tracing.Logger, txID string) (CommitStatus, error) {
	defer tracing.ProfilePoint(log, "Charges commit completed", "repository.charges.commit", tracing.ChargeTx, txID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var status CommitStatus
	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var charge entities.PendingCharge
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tx_id = ?", txID).First(&charge).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChargeNotFound
		}
		if err != nil {
			return err
		}

		switch charge.Status {
		case platform.ChargeCommitted:
			status = CommitReplay
			return nil
		case platform.ChargeReleased:
			status = CommitInvalid
			return nil
		}

		result := tx.Model(&entities.PendingCharge{}).
			Where("tx_id = ? AND status = ?", txID, platform.ChargePending).
			Updates(map[string]any{"status": platform.ChargeCommitted, "updated_at": time.Now()})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			status = CommitReplay
			return nil
		}

		err = tx.Model(&entities.User{}).
			Where("user_id = ?", charge.UserID).
			Update("balance", gorm.Expr("balance - ?", charge.Amount)).Error
		if err != nil {
			return err
		}

		status = CommitDone
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrChargeNotFound) {
			log.W("Commit requested for unknown charge", tracing.ChargeTx, txID)
			return "", err
		}
		log.E("Failed to commit charge", tracing.InnerError, err, tracing.ChargeTx, txID)
		return "", err
	}

	log.I("Charge committed", tracing.ChargeTx, txID, tracing.ChargeStatus, status)
	return status, nil
}

// Release marks the charge released. Nothing was debited at reserve time, so
// no balance mutation happens here.
func (x *ChargesRepository) Release(log *tracing.Logger, txID string, reason string) (ReleaseStatus, error) {
	defer tracing.ProfilePoint(log, "Charges release completed", "repository.charges.release", tracing.ChargeTx, txID)()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.PendingCharge{}).
		Where("tx_id = ? AND status = ?", txID, platform.ChargePending).
		Updates(map[string]any{"status": platform.ChargeReleased, "reason": reason, "updated_at": time.Now()})
	if result.Error != nil {
		log.E("Failed to release charge", tracing.InnerError, result.Error, tracing.ChargeTx, txID)
		return "", result.Error
	}

	if result.RowsAffected == 1 {
		log.I("Charge released", tracing.ChargeTx, txID, "reason", reason)
		return ReleaseDone, nil
	}

	var existing entities.PendingCharge
	err := x.db.WithContext(ctx).Where("tx_id = ?", txID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrChargeNotFound
	}
	if err != nil {
		log.E("Failed to inspect charge after release", tracing.InnerError, err, tracing.ChargeTx, txID)
		return "", err
	}

	if existing.Status == platform.ChargeCommitted {
		return ReleaseInvalid, nil
	}
	return ReleaseReplay, nil
}

func (x *ChargesRepository) GetByTx(log *tracing.Logger, txID string) (*entities.PendingCharge, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var charge entities.PendingCharge
	err := x.db.WithContext(ctx).Where("tx_id = ?", txID).First(&charge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrChargeNotFound
	}
	if err != nil {
		log.E("Failed to get charge", tracing.InnerError, err, tracing.ChargeTx, txID)
		return nil, err
	}
	return &charge, nil
}

// ReleaseStale resolves charges abandoned by a crashed instance. Intended for
// the periodic reconciliation sweep, not the request path.
func (x *ChargesRepository) ReleaseStale(log *tracing.Logger, olderThan time.Duration) (int64, error) {
	defer tracing.ProfilePoint(log, "Charges release stale completed", "repository.charges.release.stale")()
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	result := x.db.WithContext(ctx).Model(&entities.PendingCharge{}).
		Where("status = ? AND created_at < ?", platform.ChargePending, time.Now().Add(-olderThan)).
		Updates(map[string]any{"status": platform.ChargeReleased, "reason": "stale_reconciliation", "updated_at": time.Now()})
	if result.Error != nil {
		log.E("Failed to release stale charges", tracing.InnerError, result.Error)
		return 0, result.Error
	}

	if result.RowsAffected > 0 {
		log.I("Released stale charges", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

func (x *ChargesRepository) CountPending(log *tracing.Logger) (int64, error) {
	ctx, cancel := platform.ContextTimeoutVal(context.Background(), 20*time.Second)
	defer cancel()

	var count int64
	err := x.db.WithContext(ctx).Model(&entities.PendingCharge{}).
		Where("status = ?", platform.ChargePending).Count(&count).Error
	if err != nil {
		log.E("Failed to count pending charges", tracing.InnerError, err)
		return 0, err
	}
	return count, nil
}
