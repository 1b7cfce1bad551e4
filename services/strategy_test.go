package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/gadicohen93/deepcurrent/domain"
	"github.com/gadicohen93/deepcurrent/store"
)

func versionsWithRollout(rollouts ...int) []*domain.StrategyVersion {
	versions := make([]*domain.StrategyVersion, len(rollouts))
	for i, r := range rollouts {
		versions[i] = &domain.StrategyVersion{
			Version:           i + 1,
			RolloutPercentage: r,
		}
	}
	return versions
}

func TestPickWeighted(t *testing.T) {
	versions := versionsWithRollout(80, 20)

	// Draws 0..79 land on the parent, 80..99 on the candidate.
	for draw, want := range map[int]int{0: 1, 79: 1, 80: 2, 99: 2} {
		got := pickWeighted(versions, func(n int) int {
			if n != 100 {
				t.Fatalf("expected draw over 100, got %d", n)
			}
			return draw
		})
		if got.Version != want {
			t.Errorf("draw %d: got version %d, want %d", draw, got.Version, want)
		}
	}
}

func TestPickWeighted_ZeroTotal(t *testing.T) {
	versions := versionsWithRollout(0, 0)

	got := pickWeighted(versions, func(n int) int {
		t.Fatal("rand must not be consulted when total weight is zero")
		return 0
	})
	if got.Version != 1 {
		t.Errorf("zero total weight must fall back to the oldest version, got %d", got.Version)
	}
}

func TestPickWeighted_Distribution(t *testing.T) {
	versions := versionsWithRollout(70, 30)

	counts := map[int]int{}
	for draw := 0; draw < 100; draw++ {
		d := draw
		got := pickWeighted(versions, func(n int) int { return d })
		counts[got.Version]++
	}
	if counts[1] != 70 || counts[2] != 30 {
		t.Errorf("expected 70/30 split over exhaustive draws, got %v", counts)
	}
}

func TestIsSubset(t *testing.T) {
	returned := []string{"src_a", "src_b", "src_c"}

	if !isSubset([]string{"src_a", "src_c"}, returned) {
		t.Error("saved sources drawn from returned must pass")
	}
	if !isSubset(nil, returned) {
		t.Error("empty saved set must pass")
	}
	if isSubset([]string{"src_z"}, returned) {
		t.Error("saved source outside the returned set must fail")
	}
}

func activeParentRow(rollout int) *pgxmock.Rows {
	created := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "topic_id", "version", "status", "rollout_percentage",
		"parent_version", "config", "created_at", "archived_at",
	}).AddRow("sv_parent", "topic_test1", 1, domain.StrategyActive, rollout,
		(*int)(nil), []byte(`{"searchDepth":"standard","timeWindow":"week","maxFollowups":5,"sensoFirst":false}`),
		created, (*time.Time)(nil))
}

func TestCreateCandidate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	svc := NewStrategyService(&store.Store{})

	mock.ExpectQuery("SELECT (.+) FROM strategy_versions").
		WithArgs("topic_test1", 1).
		WillReturnRows(activeParentRow(100))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("topic_test1").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectExec("INSERT INTO strategy_versions").
		WithArgs(pgxmock.AnyArg(), "topic_test1", 2, domain.StrategyCandidate, 20,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// The candidate's 20 comes out of the parent's share, keeping the total
	// at 100.
	mock.ExpectExec("UPDATE strategy_versions").
		WithArgs("topic_test1", 1, 80).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := store.NewMockContext(mock)
	candidate, err := svc.CreateCandidate(ctx, "topic_test1", 1, domain.DefaultStrategyConfig(), 20)
	if err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	if candidate.Version != 2 {
		t.Errorf("expected version 2, got %d", candidate.Version)
	}
	if candidate.Status != domain.StrategyCandidate {
		t.Errorf("expected candidate status, got %q", candidate.Status)
	}
	if candidate.RolloutPercentage != 20 {
		t.Errorf("expected 20%% rollout, got %d", candidate.RolloutPercentage)
	}
	if candidate.ParentVersion == nil || *candidate.ParentVersion != 1 {
		t.Errorf("parent version not recorded: %+v", candidate.ParentVersion)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// A parent holding less share than the requested rollout caps the candidate
// at whatever the parent has left.
func TestCreateCandidate_ClampedToParentShare(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	svc := NewStrategyService(&store.Store{})

	mock.ExpectQuery("SELECT (.+) FROM strategy_versions").
		WithArgs("topic_test1", 1).
		WillReturnRows(activeParentRow(10))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("topic_test1").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectExec("INSERT INTO strategy_versions").
		WithArgs(pgxmock.AnyArg(), "topic_test1", 2, domain.StrategyCandidate, 10,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE strategy_versions").
		WithArgs("topic_test1", 1, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := store.NewMockContext(mock)
	candidate, err := svc.CreateCandidate(ctx, "topic_test1", 1, domain.DefaultStrategyConfig(), 20)
	if err != nil {
		t.Fatalf("CreateCandidate failed: %v", err)
	}
	if candidate.RolloutPercentage != 10 {
		t.Errorf("expected rollout clamped to 10, got %d", candidate.RolloutPercentage)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateCandidate_VersionConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	svc := NewStrategyService(&store.Store{})

	mock.ExpectQuery("SELECT (.+) FROM strategy_versions").
		WithArgs("topic_test1", 1).
		WillReturnRows(activeParentRow(100))
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("topic_test1").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(1))
	mock.ExpectExec("INSERT INTO strategy_versions").
		WithArgs(pgxmock.AnyArg(), "topic_test1", 2, domain.StrategyCandidate, 20,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	ctx := store.NewMockContext(mock)
	_, err = svc.CreateCandidate(ctx, "topic_test1", 1, domain.DefaultStrategyConfig(), 20)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestCreateCandidate_InvalidRollout(t *testing.T) {
	svc := NewStrategyService(&store.Store{})

	for _, rollout := range []int{-1, 101} {
		if _, err := svc.CreateCandidate(context.Background(), "topic_test1", 1,
			domain.DefaultStrategyConfig(), rollout); err == nil {
			t.Errorf("rollout %d accepted", rollout)
		}
	}
}

func TestPromote(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	svc := NewStrategyService(&store.Store{})

	mock.ExpectExec("UPDATE strategy_versions").
		WithArgs("topic_test1", 2, domain.StrategyActive).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE strategy_versions").
		WithArgs("topic_test1", 2, domain.StrategyArchived, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ctx := store.NewMockContext(mock)
	if err := svc.Promote(ctx, "topic_test1", 2); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
