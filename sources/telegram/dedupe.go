package telegram

import (
	"context"
	"fmt"
	"modelkiosk/sources/idempotency"
	"modelkiosk/sources/metrics"
	"modelkiosk/sources/repository"
	"modelkiosk/sources/tracing"
)

// DedupeGate converts Telegram's at-least-once delivery into at-most-once
// handling. The idempotency store filters quick replays cheaply; the database
// insert is the authoritative cross-instance check.
type DedupeGate struct {
	store   idempotency.Store
	updates *repository.UpdatesRepository
	metrics *metrics.MetricsService
}

func NewDedupeGate(store idempotency.Store, updates *repository.UpdatesRepository, metrics *metrics.MetricsService) *DedupeGate {
	return &DedupeGate{store: store, updates: updates, metrics: metrics}
}

func updateKey(updateID int64) string {
	return fmt.Sprintf("update:%d", updateID)
}

// FirstDelivery reports whether this update id has never been handled before.
// A store failure falls through to the database; a database failure fails
// open, since dropping a user request is worse than a rare double handle of
// an operation that is itself idempotent downstream.
func (x *DedupeGate) FirstDelivery(ctx context.Context, log *tracing.Logger, updateID int64) bool {
	started, status, err := x.store.TryStart(ctx, updateKey(updateID))
	if err != nil {
		log.W("Idempotency store unavailable, falling through", tracing.InnerError, err)
	} else if !started {
		log.I("Duplicate update suppressed by store", tracing.UpdateId, updateID, "status", status)
		x.metrics.RecordDuplicateSuppressed()
		return false
	}

	first, err := x.updates.MarkProcessed(log, updateID)
	if err != nil {
		log.W("Update ledger unavailable, handling anyway", tracing.InnerError, err)
		return true
	}
	if !first {
		log.I("Duplicate update suppressed by ledger", tracing.UpdateId, updateID)
		x.metrics.RecordDuplicateSuppressed()
		return false
	}

	return true
}

// Settle records the handling verdict so later replays within the TTL can
// observe whether the original attempt finished.
func (x *DedupeGate) Settle(ctx context.Context, log *tracing.Logger, updateID int64, ok bool) {
	status := idempotency.StatusDone
	if !ok {
		status = idempotency.StatusFailed
	}
	if err := x.store.Finish(ctx, updateKey(updateID), status); err != nil {
		log.W("Failed to settle idempotency entry", tracing.InnerError, err)
	}
}
