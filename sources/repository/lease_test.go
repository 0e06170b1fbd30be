package repository

import (
	"context"
	"strings"
	"testing"
	"time"
	"modelkiosk/sources/tracing"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqlRecorder captures the SQL gorm builds so statement shape can be checked
// without a live database.
type sqlRecorder struct {
	statements []string
}

func (r *sqlRecorder) LogMode(logger.LogLevel) logger.Interface { return r }

func (r *sqlRecorder) Info(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Warn(context.Context, string, ...interface{}) {}

func (r *sqlRecorder) Error(context.Context, string, ...interface{}) {}
func (r *sqlRecorder) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	sql, _ := fc()
	r.statements = append(r.statements, sql)
}

func dryRunLeases(t *testing.T) (*LeaseRepository, *sqlRecorder) {
	t.Helper()

	rec := &sqlRecorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=kiosk dbname=kiosk"}), &gorm.Config{
		DryRun: true,
		Logger: rec,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return NewLeaseRepository(db), rec
}

func statementWithPrefix(statements []string, prefix string) string {
	for _, s := range statements {
		if strings.HasPrefix(s, prefix) {
			return s
		}
	}
	return ""
}

func TestTryAcquireUsesDatabaseClock(t *testing.T) {
	leases, rec := dryRunLeases(t)

	if _, err := leases.TryAcquire(tracing.NewConsoleLogger(), "kiosk-active", "holder-1", 10*time.Second); err != nil {
		t.Fatalf("try acquire: %v", err)
	}

	insert := statementWithPrefix(rec.statements, "INSERT")
	if insert == "" {
		t.Fatalf("no insert captured, statements: %v", rec.statements)
	}
	if !strings.Contains(insert, "NOW() + make_interval") {
		t.Fatalf("fresh lease insert must stamp expiry from the database clock, got: %s", insert)
	}
	if strings.Contains(insert, time.Now().UTC().Format("2006-01-02")) {
		t.Fatalf("fresh lease insert must not bind a client-side timestamp, got: %s", insert)
	}

	update := statementWithPrefix(rec.statements, "UPDATE")
	if update == "" {
		t.Fatalf("no takeover update captured, statements: %v", rec.statements)
	}
	if !strings.Contains(update, "expires_at < NOW()") || !strings.Contains(update, "NOW() + make_interval") {
		t.Fatalf("lease takeover must compare and stamp expiry on the database clock, got: %s", update)
	}
}

func TestHeartbeatUsesDatabaseClock(t *testing.T) {
	leases, rec := dryRunLeases(t)

	if _, err := leases.Heartbeat(tracing.NewConsoleLogger(), "kiosk-active", "holder-1", 10*time.Second); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}

	update := statementWithPrefix(rec.statements, "UPDATE")
	if update == "" {
		t.Fatalf("no heartbeat update captured, statements: %v", rec.statements)
	}
	if !strings.Contains(update, "expires_at >= NOW()") || !strings.Contains(update, "NOW() + make_interval") {
		t.Fatalf("heartbeat must guard and extend expiry on the database clock, got: %s", update)
	}
}
