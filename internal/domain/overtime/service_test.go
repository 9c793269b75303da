package overtime

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nomina/internal/domain/employee"
	"nomina/internal/domain/payroll"
)

const testTenant = "tenant-1"

type stubPolicy struct{}

func (stubPolicy) PolicyFor(ctx context.Context, tenantID string) (payroll.Policy, error) {
	return payroll.DefaultPolicy(), nil
}

type stubNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *stubNotifier) Notify(ctx context.Context, tenantID, employeeID, kind, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	return nil
}

type fixture struct {
	service  *Service
	store    *MemStore
	notifier *stubNotifier
}

func newFixture(t *testing.T, rules CountryRules) *fixture {
	t.Helper()
	ctx := context.Background()

	store := NewMemStore()
	_, err := store.InsertRules(ctx, testTenant, rules)
	require.NoError(t, err)

	employees := employee.NewMemStore()
	_, err = employees.Insert(ctx, testTenant, employee.Employee{
		ID:            "emp-1",
		FirstName:     "Luis",
		LastName:      "Reyes",
		MonthlySalary: dec("24000"),
		PayFrequency:  employee.FrequencyMonthly,
		Country:       "MX",
		HireDate:      time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	notifier := &stubNotifier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		service:  NewService(store, employees, stubPolicy{}, notifier, logger),
		store:    store,
		notifier: notifier,
	}
}

func (f *fixture) create(t *testing.T, start, end time.Time) Request {
	t.Helper()
	req, err := f.service.Create(context.Background(), testTenant, CreateInput{
		EmployeeID: "emp-1",
		Start:      start,
		End:        end,
	})
	require.NoError(t, err)
	return req
}

func TestCreateRejectedOverDailyLimit(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	_, err := f.service.Create(ctx, testTenant, CreateInput{
		EmployeeID: "emp-1",
		Start:      at(8, 0),
		End:        at(18, 0),
	})
	var lerr *LimitExceededError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, HorizonDaily, lerr.Horizon)
	require.True(t, lerr.Requested.Equal(dec("10")))
	require.True(t, lerr.Limit.Equal(dec("3")))

	// nothing persisted, nothing accumulated
	totals, err := f.store.Totals(ctx, testTenant, "emp-1", at(8, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.IsZero())
	reqs, err := f.service.List(ctx, testTenant, "emp-1", "", 100, 0)
	require.NoError(t, err)
	require.Empty(t, reqs)
}

func TestCreateAutoApproveBySystem(t *testing.T) {
	f := newFixture(t, testRules())
	req := f.create(t, at(18, 0), at(20, 0))

	require.Equal(t, StatusApproved, req.Status)
	require.Len(t, req.Chain, 1)
	require.Equal(t, SystemApprover, req.Chain[0].ApproverID)
	require.Nil(t, req.Deadline)

	totals, err := f.store.Totals(context.Background(), testTenant, "emp-1", at(18, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.Equal(dec("2")))
	require.True(t, totals.Monthly.Equal(dec("2")))
}

func TestCreatePendingWithDeadline(t *testing.T) {
	f := newFixture(t, testRules())
	req := f.create(t, at(17, 0), at(20, 0))

	require.Equal(t, StatusPending, req.Status)
	require.NotNil(t, req.Deadline)
	require.Len(t, req.RequiredLevels, 1)
	require.Equal(t, "supervisor", req.RequiredLevels[0].Role)
}

func TestAcceptedHoursCountAgainstNextRequest(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()
	f.create(t, at(18, 0), at(20, 0)) // 2h accepted

	_, err := f.service.Create(ctx, testTenant, CreateInput{
		EmployeeID: "emp-1",
		Start:      at(20, 0),
		End:        at(22, 0),
	})
	var lerr *LimitExceededError
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, HorizonDaily, lerr.Horizon)
	require.True(t, lerr.Current.Equal(dec("2")))
}

func TestMultiLevelApprovalChain(t *testing.T) {
	rules := testRules()
	rules.MaxDaily = dec("12")
	f := newFixture(t, rules)
	ctx := context.Background()

	req := f.create(t, at(8, 0), at(14, 0)) // 6h: supervisor then manager
	require.Len(t, req.RequiredLevels, 2)

	// wrong role cannot act
	_, err := f.service.Decide(ctx, testTenant, req.ID, "mgr-1", "manager", DecisionApproved, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	req, err = f.service.Decide(ctx, testTenant, req.ID, "sup-1", "supervisor", DecisionApproved, "ok")
	require.NoError(t, err)
	require.Equal(t, StatusPending, req.Status)
	require.Equal(t, 1, req.CurrentLevel)

	req, err = f.service.Decide(ctx, testTenant, req.ID, "mgr-1", "manager", DecisionApproved, "ok")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, req.Status)
	require.Len(t, req.Chain, 2)
}

func TestRejectReleasesHoursAndNeedsReason(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()
	req := f.create(t, at(17, 0), at(20, 0)) // 3h pending

	_, err := f.service.Decide(ctx, testTenant, req.ID, "sup-1", "supervisor", DecisionRejected, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	req, err = f.service.Decide(ctx, testTenant, req.ID, "sup-1", "supervisor", DecisionRejected, "not needed")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, req.Status)

	totals, err := f.store.Totals(ctx, testTenant, "emp-1", at(17, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.IsZero(), "rejected hours must be released, got %s", totals.Daily)
}

func TestCompleteRecomputesFromActuals(t *testing.T) {
	rules := testRules()
	rules.MaxDaily = dec("12")
	rules.AutoApproveHours = dec("4")
	f := newFixture(t, rules)
	ctx := context.Background()

	req := f.create(t, at(10, 0), at(14, 0)) // 4h planned, auto-approved
	require.Equal(t, StatusApproved, req.Status)

	req, err := f.service.Start(ctx, testTenant, req.ID, at(10, 0))
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, req.Status)

	result, err := f.service.Complete(ctx, testTenant, req.ID, at(14, 30))
	require.NoError(t, err)
	require.True(t, result.PlannedHours.Equal(dec("4")))
	require.True(t, result.ActualHours.Equal(dec("4.5")))
	// 100/h x 2.0 standard x 4.5h, never the planned estimate
	require.True(t, result.Payment.Equal(dec("900")), "got %s", result.Payment)

	totals, err := f.store.Totals(ctx, testTenant, "emp-1", at(10, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.Equal(dec("4.5")), "tracking must reflect actual hours, got %s", totals.Daily)

	tracking, err := f.store.Tracking(ctx, testTenant, "emp-1", 2025, 3)
	require.NoError(t, err)
	require.True(t, tracking.Amount.Equal(dec("900")))
}

func TestInvalidTransitionsDoNotMutate(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	req := f.create(t, at(18, 0), at(20, 0)) // auto-approved

	// deciding an approved request
	_, err := f.service.Decide(ctx, testTenant, req.ID, "sup-1", "supervisor", DecisionApproved, "")
	var terr *InvalidTransitionError
	require.ErrorAs(t, err, &terr)

	// completing before start
	_, err = f.service.Complete(ctx, testTenant, req.ID, at(22, 0))
	require.ErrorAs(t, err, &terr)

	after, err := f.service.Get(ctx, testTenant, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, after.Status)
	require.Len(t, after.Chain, 1)
}

func TestTerminalStatesStayTerminal(t *testing.T) {
	rules := testRules()
	rules.AutoApproveHours = dec("3")
	f := newFixture(t, rules)
	ctx := context.Background()

	req := f.create(t, at(18, 0), at(20, 0))
	req, err := f.service.Start(ctx, testTenant, req.ID, at(18, 0))
	require.NoError(t, err)
	_, err = f.service.Complete(ctx, testTenant, req.ID, at(20, 0))
	require.NoError(t, err)

	var terr *InvalidTransitionError
	_, err = f.service.Cancel(ctx, testTenant, req.ID)
	require.ErrorAs(t, err, &terr, "completed requests cannot be cancelled")
	_, err = f.service.Start(ctx, testTenant, req.ID, at(21, 0))
	require.ErrorAs(t, err, &terr)
}

func TestCancelReleasesPlannedHours(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	req := f.create(t, at(18, 0), at(20, 0))
	_, err := f.service.Cancel(ctx, testTenant, req.ID)
	require.NoError(t, err)

	totals, err := f.store.Totals(ctx, testTenant, "emp-1", at(18, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.IsZero())
}

func TestConcurrentCreatesNeverOvershoot(t *testing.T) {
	f := newFixture(t, testRules()) // daily limit 3
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(hour int) {
			defer wg.Done()
			_, err := f.service.Create(ctx, testTenant, CreateInput{
				EmployeeID: "emp-1",
				Start:      at(hour, 0),
				End:        at(hour+2, 0),
			})
			results <- err
		}(8 + 3*i)
	}
	wg.Wait()
	close(results)

	var ok, limited int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var lerr *LimitExceededError
		require.ErrorAs(t, err, &lerr)
		limited++
	}
	require.Equal(t, 1, ok, "exactly one 2h request fits under a 3h daily limit")
	require.Equal(t, 1, limited)

	totals, err := f.store.Totals(ctx, testTenant, "emp-1", at(8, 0))
	require.NoError(t, err)
	require.True(t, totals.Daily.Equal(dec("2")))
}

func TestConcurrentCompletesCountOnce(t *testing.T) {
	rules := testRules()
	rules.AutoApproveHours = dec("3")
	f := newFixture(t, rules)
	ctx := context.Background()

	req := f.create(t, at(18, 0), at(20, 0))
	_, err := f.service.Start(ctx, testTenant, req.ID, at(18, 0))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Complete(ctx, testTenant, req.ID, at(21, 0))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, lost int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var terr *InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		lost++
	}
	require.Equal(t, 1, ok, "exactly one completion may land")
	require.Equal(t, 1, lost)

	// the loser must not have re-applied the tracking delta or the payment
	tracking, err := f.store.Tracking(ctx, testTenant, "emp-1", 2025, 3)
	require.NoError(t, err)
	require.True(t, tracking.Hours.Equal(dec("3")), "got %s", tracking.Hours)
	require.True(t, tracking.Amount.Equal(dec("600")), "got %s", tracking.Amount)
}

func TestConcurrentDecidesLandOnce(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	req := f.create(t, at(17, 0), at(20, 0)) // 3h, one supervisor level

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(approver string) {
			defer wg.Done()
			_, err := f.service.Decide(ctx, testTenant, req.ID, approver, "supervisor", DecisionApproved, "ok")
			results <- err
		}("sup-" + string(rune('a'+i)))
	}
	wg.Wait()
	close(results)

	var ok, lost int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var terr *InvalidTransitionError
		require.ErrorAs(t, err, &terr)
		lost++
	}
	require.Equal(t, 1, ok)
	require.Equal(t, 1, lost)

	after, err := f.service.Get(ctx, testTenant, req.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, after.Status)
	require.Len(t, after.Chain, 1, "only one verdict may enter the chain")
}

func TestUpdateRequestRefusesStaleStatus(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	id, err := store.InsertRequest(ctx, testTenant, Request{EmployeeID: "emp-1", Status: StatusCompleted})
	require.NoError(t, err)

	req, err := store.GetRequest(ctx, testTenant, id)
	require.NoError(t, err)
	req.Status = StatusCancelled
	moved, err := store.UpdateRequest(ctx, testTenant, req, StatusInProgress)
	require.NoError(t, err)
	require.False(t, moved)

	after, err := store.GetRequest(ctx, testTenant, id)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, after.Status)
}

func TestCompletedEarningsFeedPayroll(t *testing.T) {
	rules := testRules()
	rules.AutoApproveHours = dec("3")
	f := newFixture(t, rules)
	ctx := context.Background()

	req := f.create(t, at(18, 0), at(20, 0))
	_, err := f.service.Start(ctx, testTenant, req.ID, at(18, 0))
	require.NoError(t, err)
	_, err = f.service.Complete(ctx, testTenant, req.ID, at(21, 0))
	require.NoError(t, err)

	earnings, err := f.service.CompletedEarnings(ctx, testTenant, "emp-1",
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, earnings, 1)
	require.Equal(t, req.ID, earnings[0].RequestID)
	require.True(t, earnings[0].Hours.Equal(dec("3")))
	require.True(t, earnings[0].Amount.Equal(dec("600")))

	// outside the window: nothing
	earnings, err = f.service.CompletedEarnings(ctx, testTenant, "emp-1",
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Empty(t, earnings)
}

func TestEscalatePastDeadline(t *testing.T) {
	f := newFixture(t, testRules())
	ctx := context.Background()

	req := f.create(t, at(17, 0), at(20, 0)) // pending
	require.NotNil(t, req.Deadline)

	later := time.Now().Add(72 * time.Hour)
	overdue, err := f.service.ListPastDeadline(ctx, testTenant, later)
	require.NoError(t, err)
	require.Len(t, overdue, 1)

	count, err := f.service.EscalatePastDeadline(ctx, testTenant, later)
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Contains(t, f.notifier.kinds, "overtime_escalated")

	// deadline pushed forward, second sweep is quiet
	overdue, err = f.service.ListPastDeadline(ctx, testTenant, later)
	require.NoError(t, err)
	require.Empty(t, overdue)
}

func TestSummaryFlagsLimits(t *testing.T) {
	rules := testRules()
	rules.MaxDaily = dec("12")
	rules.MaxMonthly = dec("6")
	rules.AutoApproveHours = dec("6")
	f := newFixture(t, rules)
	ctx := context.Background()

	f.create(t, at(8, 0), at(14, 0)) // 6h, hits the monthly ceiling

	summary, err := f.service.Summary(ctx, testTenant, "emp-1", 2025, 3)
	require.NoError(t, err)
	require.True(t, summary.Hours.Equal(dec("6")))
	require.True(t, summary.MonthlyOver)
	require.False(t, summary.AnnualOver)
}
