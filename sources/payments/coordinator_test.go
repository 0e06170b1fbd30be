package payments

import (
	"context"
	"errors"
	"testing"
	"modelkiosk/sources/catalog"
	"modelkiosk/sources/kie"
	"modelkiosk/sources/persistence/entities"
	"modelkiosk/sources/pricing"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"

	"github.com/shopspring/decimal"
)

type fakeLedger struct {
	reserveStatus repository.ReserveStatus
	commitStatus  repository.CommitStatus
	commitErr     error

	statuses  map[string]string
	reserved  []string
	committed []string
	released  map[string]string
}

func (f *fakeLedger) Reserve(log *tracing.Logger, txID string, userID int64, modelID string, amount decimal.Decimal, reserved bool) (repository.ReserveStatus, error) {
	f.reserved = append(f.reserved, txID)
	if f.reserveStatus != "" {
		return f.reserveStatus, nil
	}
	switch f.statuses[txID] {
	case "committed":
		return repository.ReserveCommitted, nil
	case "released":
		return repository.ReserveReleased, nil
	case "pending":
		return repository.ReservePending, nil
	}
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[txID] = "pending"
	return repository.ReserveOK, nil
}

func (f *fakeLedger) Commit(log *tracing.Logger, txID string) (repository.CommitStatus, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.committed = append(f.committed, txID)
	f.statuses[txID] = "committed"
	if f.commitStatus == "" {
		return repository.CommitDone, nil
	}
	return f.commitStatus, nil
}

func (f *fakeLedger) Release(log *tracing.Logger, txID string, reason string) (repository.ReleaseStatus, error) {
	if f.released == nil {
		f.released = map[string]string{}
	}
	if f.statuses == nil {
		f.statuses = map[string]string{}
	}
	f.statuses[txID] = "released"
	f.released[txID] = reason
	return repository.ReleaseDone, nil
}

type fakeEntitlements struct {
	user     *entities.User
	useFails bool
	refunded int
	consumed int
}

func (f *fakeEntitlements) GetUserByEid(log *tracing.Logger, euid int64) (*entities.User, error) {
	if f.user == nil {
		return nil, repository.ErrUserNotFound
	}
	return f.user, nil
}

func (f *fakeEntitlements) UseReferralCredit(log *tracing.Logger, euid int64) (bool, error) {
	if f.useFails || f.user == nil || f.user.ReferralFreeUses <= 0 {
		return false, nil
	}
	f.user.ReferralFreeUses--
	f.consumed++
	return true, nil
}

func (f *fakeEntitlements) RefundReferralCredit(log *tracing.Logger, euid int64) error {
	f.user.ReferralFreeUses++
	f.refunded++
	return nil
}

type fakeInvoker struct {
	result *kie.Result
	err    error
	panics bool
	calls  int
}

func (f *fakeInvoker) Generate(ctx context.Context, log *tracing.Logger, modelID string, input map[string]any) (*kie.Result, error) {
	f.calls++
	if f.panics {
		panic("upstream exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &kie.Result{Success: true, ResultURLs: []string{"https://cdn.example/out.png"}}, nil
}

type recordedGeneration struct {
	costBasis string
	amount    decimal.Decimal
	success   bool
}

type fakeRecorder struct {
	entries []recordedGeneration
}

func (f *fakeRecorder) LogGeneration(log *tracing.Logger, userID int64, modelID string, txID *string, costBasis string, amount decimal.Decimal, success bool, resultURLs []string, message string) error {
	f.entries = append(f.entries, recordedGeneration{costBasis: costBasis, amount: amount, success: success})
	return nil
}

type fakeToggles struct {
	disabled map[string]bool
}

func (f *fakeToggles) IsEnabledDefault(featureName string, defaultValue bool) bool {
	if f.disabled[featureName] {
		return false
	}
	return defaultValue
}

type fakeGate struct {
	active bool
}

func (f *fakeGate) IsActive() bool { return f.active }

type harness struct {
	coordinator  *Coordinator
	ledger       *fakeLedger
	entitlements *fakeEntitlements
	invoker      *fakeInvoker
	recorder     *fakeRecorder
}

func testRegistry() *catalog.Registry {
	dec := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }
	return catalog.NewRegistryFromModels(map[string]*catalog.Model{
		"cheap-a":  {Pricing: catalog.PriceModel{RubPerGen: dec("1")}},
		"cheap-b":  {Pricing: catalog.PriceModel{RubPerGen: dec("2")}},
		"cheap-c":  {Pricing: catalog.PriceModel{RubPerGen: dec("3")}},
		"cheap-d":  {Pricing: catalog.PriceModel{RubPerGen: dec("4")}},
		"cheap-e":  {Pricing: catalog.PriceModel{RubPerGen: dec("5")}},
		"mid":      {Pricing: catalog.PriceModel{RubPerGen: dec("8")}},
		"premium":  {Pricing: catalog.PriceModel{RubPerGen: dec("120")}},
		"unpriced": {Pricing: catalog.PriceModel{}},
	})
}

func newHarness(t *testing.T, user *entities.User) *harness {
	t.Helper()

	config := &pricing.PricingConfig{
		Markup:         decimal.RequireFromString("2.0"),
		UsdToRub:       decimal.RequireFromString("95.0"),
		CreditsToUsd:   decimal.RequireFromString("0.005"),
		FreeTierSize:   5,
		ReferralMaxRub: decimal.RequireFromString("10.0"),
	}
	registry := testRegistry()
	resolver := pricing.NewResolver(config)
	freeTier, err := pricing.Compute(registry, resolver, config.FreeTierSize)
	if err != nil {
		t.Fatalf("free tier: %v", err)
	}

	h := &harness{
		ledger:       &fakeLedger{},
		entitlements: &fakeEntitlements{user: user},
		invoker:      &fakeInvoker{},
		recorder:     &fakeRecorder{},
	}
	h.coordinator = NewCoordinator(
		config, registry, resolver, freeTier,
		h.ledger, h.entitlements, h.invoker, h.recorder,
		&fakeToggles{}, &fakeGate{active: true},
	)
	return h
}

func plainUser() *entities.User {
	return &entities.User{UserID: 7, Balance: decimal.RequireFromString("500")}
}

func TestGenerateRejectsInactiveInstance(t *testing.T) {
	h := newHarness(t, plainUser())
	h.coordinator.gate = &fakeGate{active: false}

	_, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if !errors.Is(err, ErrInstanceInactive) {
		t.Fatalf("expected ErrInstanceInactive, got %v", err)
	}
	if h.invoker.calls != 0 {
		t.Fatalf("no upstream call expected, got %d", h.invoker.calls)
	}
}

func TestGenerateUnknownModel(t *testing.T) {
	h := newHarness(t, plainUser())

	_, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "no-such-model", "a cat", "")
	if !errors.Is(err, catalog.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestGenerateFreeTierBypassesLedger(t *testing.T) {
	h := newHarness(t, plainUser())

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "cheap-a", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentFreeTier {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentFreeTier)
	}
	if !outcome.Success || len(outcome.ResultURLs) == 0 {
		t.Fatal("expected delivered results")
	}
	if len(h.ledger.reserved) != 0 {
		t.Fatal("free tier generation must not touch the ledger")
	}
	if !outcome.Amount.IsZero() {
		t.Fatalf("amount = %s, want 0", outcome.Amount)
	}
}

func TestGenerateUnpricedModelIsFree(t *testing.T) {
	h := newHarness(t, plainUser())

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "unpriced", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentFreeTier {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentFreeTier)
	}
	if len(h.ledger.reserved) != 0 {
		t.Fatal("unpriced generation must not touch the ledger")
	}
}

func TestGenerateChargedFlow(t *testing.T) {
	h := newHarness(t, plainUser())

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentCharged {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentCharged)
	}
	if len(h.ledger.reserved) != 1 || len(h.ledger.committed) != 1 {
		t.Fatalf("expected one reserve and one commit, got %d/%d", len(h.ledger.reserved), len(h.ledger.committed))
	}
	if h.ledger.reserved[0] != h.ledger.committed[0] {
		t.Fatal("commit must settle the reserved transaction")
	}
	if want := decimal.RequireFromString("120"); !outcome.Amount.Equal(want) {
		t.Fatalf("amount = %s, want %s", outcome.Amount, want)
	}
}

func TestGenerateInsufficientBalanceSkipsUpstream(t *testing.T) {
	h := newHarness(t, plainUser())
	h.ledger.reserveStatus = repository.ReserveInsufficient

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentInsufficient {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentInsufficient)
	}
	if h.invoker.calls != 0 {
		t.Fatal("upstream must not be called when the reservation is declined")
	}
	if len(h.ledger.committed) != 0 || len(h.ledger.released) != 0 {
		t.Fatal("declined reservation must not be settled")
	}
}

func TestGenerateFailureReleasesCharge(t *testing.T) {
	h := newHarness(t, plainUser())
	h.invoker.result = &kie.Result{Success: false, Message: "upstream says no"}

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentRefunded {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentRefunded)
	}
	if len(h.ledger.committed) != 0 {
		t.Fatal("failed generation must never commit")
	}
	if reason := h.ledger.released[outcome.TxID]; reason != "generation_failed" {
		t.Fatalf("release reason = %q, want generation_failed", reason)
	}
}

func TestGeneratePanicReleasesCharge(t *testing.T) {
	h := newHarness(t, plainUser())
	h.invoker.panics = true

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentRefunded {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentRefunded)
	}
	if len(h.ledger.committed) != 0 {
		t.Fatal("panicked generation must never commit")
	}
	if len(h.ledger.released) != 1 {
		t.Fatal("panicked generation must release its reservation")
	}
}

func TestGenerateCommitReplayReportsAlreadyCommitted(t *testing.T) {
	h := newHarness(t, plainUser())
	h.ledger.commitStatus = repository.CommitReplay

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentAlreadyCommitted {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentAlreadyCommitted)
	}
	if len(h.recorder.entries) != 1 || h.recorder.entries[0].costBasis != PaymentAlreadyCommitted {
		t.Fatalf("recorded %+v, want %s", h.recorder.entries, PaymentAlreadyCommitted)
	}
}

func TestGenerateUsesCallerTransactionID(t *testing.T) {
	h := newHarness(t, plainUser())

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "charge_7_7_42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.TxID != "charge_7_7_42" {
		t.Fatalf("tx = %s, want charge_7_7_42", outcome.TxID)
	}
	if len(h.ledger.reserved) != 1 || h.ledger.reserved[0] != "charge_7_7_42" {
		t.Fatalf("reserved %v, want the caller transaction", h.ledger.reserved)
	}
}

func TestGenerateRedeliveryDoesNotDoubleCharge(t *testing.T) {
	h := newHarness(t, plainUser())
	log := tracing.NewConsoleLogger()

	first, err := h.coordinator.Generate(context.Background(), log, 7, "premium", "a cat", "charge_7_7_42")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.Status != PaymentCharged {
		t.Fatalf("first status = %s, want %s", first.Status, PaymentCharged)
	}

	second, err := h.coordinator.Generate(context.Background(), log, 7, "premium", "a cat", "charge_7_7_42")
	if err != nil {
		t.Fatalf("redelivered generate: %v", err)
	}
	if second.Status != PaymentAlreadyCommitted {
		t.Fatalf("second status = %s, want %s", second.Status, PaymentAlreadyCommitted)
	}
	if h.invoker.calls != 1 {
		t.Fatalf("upstream calls = %d, a redelivery must not regenerate", h.invoker.calls)
	}
	if len(h.ledger.committed) != 1 {
		t.Fatalf("commits = %d, a redelivery must not settle twice", len(h.ledger.committed))
	}
}

func TestGenerateRedeliveryAfterReleaseReportsRefund(t *testing.T) {
	h := newHarness(t, plainUser())
	h.invoker.result = &kie.Result{Success: false, Message: "upstream says no"}
	log := tracing.NewConsoleLogger()

	if _, err := h.coordinator.Generate(context.Background(), log, 7, "premium", "a cat", "charge_7_7_43"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	h.invoker.result = nil
	second, err := h.coordinator.Generate(context.Background(), log, 7, "premium", "a cat", "charge_7_7_43")
	if err != nil {
		t.Fatalf("redelivered generate: %v", err)
	}
	if second.Status != PaymentRefunded {
		t.Fatalf("second status = %s, want %s", second.Status, PaymentRefunded)
	}
	if h.invoker.calls != 1 {
		t.Fatalf("upstream calls = %d, a settled transaction must not regenerate", h.invoker.calls)
	}
}

func TestGenerateTimeoutReleasesWithTimeoutReason(t *testing.T) {
	h := newHarness(t, plainUser())
	h.invoker.err = kie.ErrTaskTimeout

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentRefunded {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentRefunded)
	}
	if reason := h.ledger.released[outcome.TxID]; reason != "generation_timeout" {
		t.Fatalf("release reason = %q, want generation_timeout", reason)
	}
}

func TestGenerateUpstreamFailCodeBecomesReleaseReason(t *testing.T) {
	h := newHarness(t, plainUser())
	h.invoker.result = &kie.Result{Success: false, Message: "content rejected", ErrorCode: "422"}

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if reason := h.ledger.released[outcome.TxID]; reason != "422" {
		t.Fatalf("release reason = %q, want 422", reason)
	}
}

func TestGenerateCommitErrorStillDelivers(t *testing.T) {
	h := newHarness(t, plainUser())
	h.ledger.commitErr = errors.New("database is down")

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !outcome.Success || len(outcome.ResultURLs) == 0 {
		t.Fatal("delivered results must survive a commit failure")
	}
	if len(h.ledger.released) != 0 {
		t.Fatal("a successful generation must never be released")
	}
}

func TestGenerateReferralCreditCoversCheapModel(t *testing.T) {
	user := plainUser()
	user.ReferralFreeUses = 2
	h := newHarness(t, user)

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "mid", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentReferralFree {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentReferralFree)
	}
	if h.entitlements.consumed != 1 || user.ReferralFreeUses != 1 {
		t.Fatalf("expected one consumed credit, uses left = %d", user.ReferralFreeUses)
	}
	if len(h.ledger.reserved) != 0 {
		t.Fatal("referral generation must not touch the ledger")
	}
}

func TestGenerateReferralCreditRestoredOnFailure(t *testing.T) {
	user := plainUser()
	user.ReferralFreeUses = 1
	h := newHarness(t, user)
	h.invoker.result = &kie.Result{Success: false, Message: "upstream says no"}

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "mid", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentReferralFreeFailed {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentReferralFreeFailed)
	}
	if h.entitlements.refunded != 1 || user.ReferralFreeUses != 1 {
		t.Fatalf("credit not restored, uses = %d refunded = %d", user.ReferralFreeUses, h.entitlements.refunded)
	}
}

func TestGenerateReferralSkippedOverCap(t *testing.T) {
	user := plainUser()
	user.ReferralFreeUses = 3
	h := newHarness(t, user)

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentCharged {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentCharged)
	}
	if h.entitlements.consumed != 0 {
		t.Fatal("referral credit must not cover a model above the cap")
	}
}

func TestGenerateReferralRespectsPerUserCap(t *testing.T) {
	user := plainUser()
	user.ReferralFreeUses = 3
	user.ReferralMaxAmount = decimal.RequireFromString("200")
	h := newHarness(t, user)

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentReferralFree {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentReferralFree)
	}
}

func TestGenerateReferralDisabledByToggle(t *testing.T) {
	user := plainUser()
	user.ReferralFreeUses = 3
	h := newHarness(t, user)
	h.coordinator.toggles = &fakeToggles{disabled: map[string]bool{"payments/referral-program": true}}

	outcome, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "mid", "a cat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if outcome.Status != PaymentCharged {
		t.Fatalf("status = %s, want %s", outcome.Status, PaymentCharged)
	}
	if h.entitlements.consumed != 0 {
		t.Fatal("disabled referral program must not consume credits")
	}
}

func TestGenerateRecordsChargedRevenue(t *testing.T) {
	h := newHarness(t, plainUser())

	if _, err := h.coordinator.Generate(context.Background(), tracing.NewConsoleLogger(), 7, "premium", "a cat", ""); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(h.recorder.entries) != 1 {
		t.Fatalf("expected one recorded generation, got %d", len(h.recorder.entries))
	}
	entry := h.recorder.entries[0]
	if entry.costBasis != PaymentCharged || !entry.success {
		t.Fatalf("recorded %+v, want charged success", entry)
	}
	if want := decimal.RequireFromString("120"); !entry.amount.Equal(want) {
		t.Fatalf("recorded amount = %s, want %s", entry.amount, want)
	}
}
