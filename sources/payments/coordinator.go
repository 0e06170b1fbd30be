package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/features"
	"modelkiosk/sources/kie"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coordinator settles the money side of a generation. The ordering invariant
// is strict: funds are reserved before the upstream call and committed only
// after a confirmed success, so a crash at any point leaves either a released
// or a reconcilable pending charge, never a silent debit.
type Coordinator struct {
	config       *pricing.PricingConfig
	registry     *catalog.Registry
	resolver     *pricing.Resolver
	freeTier     *pricing.FreeTier
	ledger       Ledger
	entitlements Entitlements
	invoker      Invoker
	recorder     Recorder
	toggles      Toggles
	gate         ActivityGate
}

func NewCoordinator(
	config *pricing.PricingConfig,
	registry *catalog.Registry,
	resolver *pricing.Resolver,
	freeTier *pricing.FreeTier,
	ledger Ledger,
	entitlements Entitlements,
	invoker Invoker,
	recorder Recorder,
	toggles Toggles,
	gate ActivityGate,
) *Coordinator {
	return &Coordinator{
		config:       config,
		registry:     registry,
		resolver:     resolver,
		freeTier:     freeTier,
		ledger:       ledger,
		entitlements: entitlements,
		invoker:      invoker,
		recorder:     recorder,
		toggles:      toggles,
		gate:         gate,
	}
}

// Generate runs the full payment-safe generation flow for one request:
// free tier bypass, then a referral credit if one applies, then the
// reserve-generate-commit charge path. txID identifies the logical request;
// a redelivery carrying the same txID replays against the ledger instead of
// reserving a second charge. An empty txID mints a fresh one.
func (x *Coordinator) Generate(ctx context.Context, log *tracing.Logger, userID int64, modelID, prompt, txID string) (*Outcome, error) {
	defer tracing.ProfilePoint(log, "Paid generation completed", "payments.generate", tracing.UserId, userID, tracing.ModelId, modelID)()

	if !x.gate.IsActive() {
		log.W("Generation rejected, instance is not active")
		return nil, ErrInstanceInactive
	}

	price, basis, err := x.resolver.EffectiveFor(x.registry, modelID)
	if err != nil {
		return nil, err
	}

	log = log.With(tracing.PriceBasis, basis, tracing.ChargeAmount, price)

	if basis == pricing.BasisNone || !price.IsPositive() || x.freeTier.Contains(modelID) {
		return x.generateFree(ctx, log, userID, modelID, prompt, price, basis)
	}

	if outcome, ok, err := x.tryReferral(ctx, log, userID, modelID, prompt, price, basis); err != nil {
		return nil, err
	} else if ok {
		return outcome, nil
	}

	return x.generateCharged(ctx, log, userID, modelID, prompt, txID, price, basis)
}

func (x *Coordinator) generateFree(ctx context.Context, log *tracing.Logger, userID int64, modelID, prompt string, price decimal.Decimal, basis string) (*Outcome, error) {
	result := x.invoke(ctx, log, modelID, prompt)

	outcome := &Outcome{
		Status:     PaymentFreeTier,
		Amount:     decimal.Zero,
		Basis:      basis,
		Success:    result.Success,
		ResultURLs: result.ResultURLs,
		Message:    result.Message,
	}
	if !result.Success {
		outcome.Status = PaymentFailed
	}

	x.record(log, userID, modelID, nil, PaymentFreeTier, decimal.Zero, result)
	log.I("Free generation settled", tracing.PaymentStatus, outcome.Status)
	return outcome, nil
}

// tryReferral consumes one referral credit when the user has any left and the
// effective price fits under the referral cap. The decrement happens before
// the upstream call and is compensated on failure.
func (x *Coordinator) tryReferral(ctx context.Context, log *tracing.Logger, userID int64, modelID, prompt string, price decimal.Decimal, basis string) (*Outcome, bool, error) {
	if !x.toggles.IsEnabledDefault(features.FeatureReferralProgram, true) {
		return nil, false, nil
	}

	user, err := x.entitlements.GetUserByEid(log, userID)
	if err != nil {
		return nil, false, err
	}
	if user.ReferralFreeUses <= 0 {
		return nil, false, nil
	}

	limit := user.ReferralMaxAmount
	if !limit.IsPositive() {
		limit = x.config.ReferralMaxRub
	}
	if price.GreaterThan(limit) {
		return nil, false, nil
	}

	used, err := x.entitlements.UseReferralCredit(log, userID)
	if err != nil {
		return nil, false, err
	}
	if !used {
		// Another concurrent generation took the last credit.
		return nil, false, nil
	}

	result := x.invoke(ctx, log, modelID, prompt)
	if !result.Success {
		if err := x.entitlements.RefundReferralCredit(log, userID); err != nil {
			log.E("Failed to restore referral credit", tracing.InnerError, err)
		}
		x.record(log, userID, modelID, nil, PaymentReferralFreeFailed, decimal.Zero, result)
		return &Outcome{
			Status:  PaymentReferralFreeFailed,
			Basis:   basis,
			Amount:  decimal.Zero,
			Message: result.Message,
		}, true, nil
	}

	x.record(log, userID, modelID, nil, PaymentReferralFree, decimal.Zero, result)
	log.I("Referral generation settled", tracing.PaymentStatus, PaymentReferralFree)
	return &Outcome{
		Status:     PaymentReferralFree,
		Basis:      basis,
		Amount:     decimal.Zero,
		Success:    true,
		ResultURLs: result.ResultURLs,
		Message:    result.Message,
	}, true, nil
}

func (x *Coordinator) generateCharged(ctx context.Context, log *tracing.Logger, userID int64, modelID, prompt, txID string, price decimal.Decimal, basis string) (*Outcome, error) {
	if txID == "" {
		txID = newTxID(userID, modelID)
	}
	log = log.With(tracing.ChargeTx, txID)

	reserve, err := x.ledger.Reserve(log, txID, userID, modelID, price, x.config.ReserveBalance)
	if err != nil {
		return nil, err
	}

	switch reserve {
	case repository.ReserveInsufficient:
		log.I("Generation declined", tracing.PaymentStatus, PaymentInsufficient)
		return &Outcome{Status: PaymentInsufficient, TxID: txID, Amount: price, Basis: basis}, nil
	case repository.ReserveCommitted:
		return &Outcome{Status: PaymentAlreadyCommitted, TxID: txID, Amount: price, Basis: basis}, nil
	case repository.ReserveReleased:
		return &Outcome{Status: PaymentRefunded, TxID: txID, Amount: price, Basis: basis}, nil
	case repository.ReservePending:
		// A replayed request with a live reservation keeps the original
		// transaction in flight; nothing to re-run here.
		return &Outcome{Status: PaymentFailed, TxID: txID, Amount: price, Basis: basis, Message: "request is already in flight"}, nil
	}

	result := x.invoke(ctx, log, modelID, prompt)

	if !result.Success {
		reason := result.ErrorCode
		if reason == "" {
			reason = "generation_failed"
		}
		if _, err := x.ledger.Release(log, txID, reason); err != nil {
			log.E("Failed to release charge after failed generation", tracing.InnerError, err)
		}
		x.record(log, userID, modelID, &txID, PaymentRefunded, price, result)
		return &Outcome{
			Status:  PaymentRefunded,
			TxID:    txID,
			Amount:  price,
			Basis:   basis,
			Message: result.Message,
		}, nil
	}

	commit, err := x.ledger.Commit(log, txID)
	if err != nil {
		// The user already has their result. Leave the charge pending for the
		// reconciliation sweep rather than failing the delivery.
		log.E("Failed to commit charge after successful generation", tracing.InnerError, err)
		x.record(log, userID, modelID, &txID, PaymentCharged, price, result)
		return &Outcome{
			Status:     PaymentCharged,
			TxID:       txID,
			Amount:     price,
			Basis:      basis,
			Success:    true,
			ResultURLs: result.ResultURLs,
		}, nil
	}

	status := PaymentCharged
	if commit == repository.CommitReplay {
		status = PaymentAlreadyCommitted
	}

	x.record(log, userID, modelID, &txID, status, price, result)
	log.I("Charged generation settled", tracing.PaymentStatus, status)
	return &Outcome{
		Status:     status,
		TxID:       txID,
		Amount:     price,
		Basis:      basis,
		Success:    true,
		ResultURLs: result.ResultURLs,
	}, nil
}

// invoke never lets the upstream call take the process down. A panic or
// transport error is a failed generation, which the caller then settles by
// releasing or compensating whatever was taken.
func (x *Coordinator) invoke(ctx context.Context, log *tracing.Logger, modelID, prompt string) (result *kie.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.E("Generation panicked", tracing.InnerError, fmt.Errorf("%v", r))
			result = &kie.Result{Success: false, Message: "generation failed"}
		}
	}()

	if x.toggles.IsEnabledDefault(features.FeatureGenerationDryRun, false) {
		log.I("Dry run, skipping upstream call")
		return &kie.Result{Success: true, ResultURLs: []string{"dry-run://" + modelID}}
	}

	result, err := x.invoker.Generate(ctx, log, modelID, map[string]any{"prompt": prompt})
	if err != nil {
		if errors.Is(err, kie.ErrTaskTimeout) || errors.Is(err, context.DeadlineExceeded) {
			log.E("Generation timed out", tracing.InnerError, err)
			return &kie.Result{Success: false, Message: "generation timed out", ErrorCode: "generation_timeout"}
		}
		log.E("Generation call failed", tracing.InnerError, err)
		return &kie.Result{Success: false, Message: "generation failed"}
	}
	return result
}

func (x *Coordinator) record(log *tracing.Logger, userID int64, modelID string, txID *string, costBasis string, amount decimal.Decimal, result *kie.Result) {
	err := x.recorder.LogGeneration(log, userID, modelID, txID, costBasis, amount, result.Success, result.ResultURLs, result.Message)
	if err != nil {
		log.E("Failed to record generation", tracing.InnerError, err)
	}
}

func newTxID(userID int64, modelID string) string {
	return fmt.Sprintf("charge_%d_%s_%s", userID, modelID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
