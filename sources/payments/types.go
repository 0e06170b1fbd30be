package payments

import (
	"context"
	"errors"
	"modelkiosk/sources/kie"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"

	"github.com/shopspring/decimal"
)

var (
	ErrInstanceInactive = errors.New("instance does not hold the active lease")
)

type PaymentStatus = string

const (
	PaymentFreeTier           PaymentStatus = "free_tier"
	PaymentReferralFree       PaymentStatus = "referral_free"
	PaymentReferralFreeFailed PaymentStatus = "referral_free_failed"
	PaymentCharged            PaymentStatus = "charged"
	PaymentRefunded           PaymentStatus = "refunded"
	PaymentAlreadyCommitted   PaymentStatus = "already_committed"
	PaymentInsufficient       PaymentStatus = "insufficient_balance"
	PaymentFailed             PaymentStatus = "generation_failed"
)

// Outcome is the settled verdict of one paid generation: what happened to the
// money and what, if anything, was produced.
type Outcome struct {
	Status     PaymentStatus
	TxID       string
	Amount     decimal.Decimal
	Basis      string
	Success    bool
	ResultURLs []string
	Message    string
}

type Ledger interface {
	Reserve(log *tracing.Logger, txID string, userID int64, modelID string, amount decimal.Decimal, reserved bool) (repository.ReserveStatus, error)
	Commit(log *tracing.Logger, txID string) (repository.CommitStatus, error)
	Release(log *tracing.Logger, txID string, reason string) (repository.ReleaseStatus, error)
}

type Entitlements interface {
	GetUserByEid(log *tracing.Logger, euid int64) (*entities.User, error)
	UseReferralCredit(log *tracing.Logger, euid int64) (bool, error)
	RefundReferralCredit(log *tracing.Logger, euid int64) error
}

type Invoker interface {
	Generate(ctx context.Context, log *tracing.Logger, modelID string, input map[string]any) (*kie.Result, error)
}

type Recorder interface {
	LogGeneration(log *tracing.Logger, userID int64, modelID string, txID *string, costBasis string, amount decimal.Decimal, success bool, resultURLs []string, message string) error
}

type Toggles interface {
	IsEnabledDefault(featureName string, defaultValue bool) bool
}

type ActivityGate interface {
	IsActive() bool
}
