package overtime

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"nomina/internal/domain/employee"
	"nomina/internal/domain/payroll"
)

// PolicySource supplies the tenant payroll policy; the daily-rate divisor
// drives the hourly rate used for pricing.
type PolicySource interface {
	PolicyFor(ctx context.Context, tenantID string) (payroll.Policy, error)
}

// Notifier is the outbound notification edge. Dispatch happens outside the
// calculation path; failures are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, tenantID, employeeID, kind, message string) error
}

type Service struct {
	store     Store
	employees employee.Store
	policies  PolicySource
	notifier  Notifier
	locks     *keyedMutex
	logger    *slog.Logger
}

func NewService(store Store, employees employee.Store, policies PolicySource, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		employees: employees,
		policies:  policies,
		notifier:  notifier,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

var _ payroll.OvertimeSource = (*Service)(nil)

// SetPolicySource breaks the construction cycle with payroll: payroll pulls
// completed overtime, overtime prices against the payroll policy. Call once
// during wiring, before serving traffic.
func (s *Service) SetPolicySource(policies PolicySource) {
	s.policies = policies
}

type CreateInput struct {
	EmployeeID string    `json:"employeeId"`
	Start      time.Time `json:"startTime"`
	End        time.Time `json:"endTime"`
	Reason     string    `json:"reason,omitempty"`
}

func monthKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format("2006-01")
}

// Create validates the window against all four legal horizons and either
// auto-approves or opens the approval chain. Validation and the tracking
// increment run under the per-(employee, month) lock so concurrent requests
// never validate against a stale total.
func (s *Service) Create(ctx context.Context, tenantID string, in CreateInput) (Request, error) {
	hours, err := WindowHours(in.Start, in.End)
	if err != nil {
		return Request{}, err
	}
	emp, err := s.employees.Get(ctx, tenantID, in.EmployeeID)
	if err != nil {
		return Request{}, err
	}
	rules, err := s.store.RulesForYear(ctx, tenantID, emp.Country, in.Start.Year())
	if err != nil {
		return Request{}, err
	}
	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return Request{}, err
	}

	unlock := s.locks.Lock(monthKey(in.EmployeeID, in.Start))
	defer unlock()

	totals, err := s.store.Totals(ctx, tenantID, in.EmployeeID, in.Start)
	if err != nil {
		return Request{}, err
	}
	if err := rules.ValidateLimits(totals, hours); err != nil {
		return Request{}, err
	}

	kind := rules.Classify(in.Start, in.End)
	rate, amount := rules.Price(emp.MonthlySalary, policy.DailyRateDivisor, kind, hours)

	req := Request{
		EmployeeID:     in.EmployeeID,
		Country:        emp.Country,
		RequestedStart: in.Start,
		RequestedEnd:   in.End,
		PlannedHours:   hours,
		Kind:           kind,
		HourlyRate:     rate,
		Multiplier:     rules.MultiplierFor(kind),
		Amount:         amount,
		Reason:         in.Reason,
	}

	now := time.Now()
	if !rules.AutoApproveHours.IsZero() && hours.LessThanOrEqual(rules.AutoApproveHours) {
		req.Status = StatusApproved
		req.Chain = []Decision{{
			Level:      0,
			ApproverID: SystemApprover,
			Decision:   DecisionApproved,
			DecidedAt:  now,
		}}
	} else {
		req.Status = StatusPending
		req.RequiredLevels = rules.RequiredLevels(hours)
		deadlineHours := rules.DeadlineHours
		if deadlineHours <= 0 {
			deadlineHours = defaultDeadlineHours
		}
		deadline := now.Add(time.Duration(deadlineHours) * time.Hour)
		req.Deadline = &deadline
	}

	req.ID, err = s.store.InsertRequest(ctx, tenantID, req)
	if err != nil {
		return Request{}, err
	}
	if err := s.store.ApplyDelta(ctx, tenantID, in.EmployeeID, in.Start, hours, decimal.Zero); err != nil {
		return Request{}, err
	}

	if req.Status == StatusApproved {
		s.notify(ctx, tenantID, in.EmployeeID, "overtime_approved", "overtime request auto-approved")
	} else {
		s.notify(ctx, tenantID, in.EmployeeID, "overtime_submitted", "overtime request submitted for approval")
	}
	return req, nil
}

// Decide applies one approver's verdict at the request's current level. The
// chain is re-read under the per-(employee, month) lock so two approvers
// deciding the same level never both land.
func (s *Service) Decide(ctx context.Context, tenantID, requestID, approverID, approverRole, decision, comments string) (Request, error) {
	if decision != DecisionApproved && decision != DecisionRejected {
		return Request{}, &ValidationError{Field: "decision", Reason: "must be approved or rejected"}
	}
	if decision == DecisionRejected && comments == "" {
		return Request{}, &ValidationError{Field: "comments", Reason: "a rejection needs a reason"}
	}

	probe, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}

	unlock := s.locks.Lock(monthKey(probe.EmployeeID, probe.RequestedStart))
	defer unlock()

	req, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusPending {
		return Request{}, &InvalidTransitionError{From: req.Status, Action: "decide"}
	}
	if req.CurrentLevel >= len(req.RequiredLevels) {
		return Request{}, &InvalidTransitionError{From: req.Status, Action: "decide"}
	}
	level := req.RequiredLevels[req.CurrentLevel]
	if approverRole != level.Role && approverRole != "hr" {
		return Request{}, &ValidationError{Field: "approver", Reason: "level requires role " + level.Role}
	}

	req.Chain = append(req.Chain, Decision{
		Level:      level.Level,
		ApproverID: approverID,
		Decision:   decision,
		Comments:   comments,
		DecidedAt:  time.Now(),
	})

	if decision == DecisionRejected {
		req.Status = StatusRejected
		if err := s.updateGuarded(ctx, tenantID, req, "decide", StatusPending); err != nil {
			return Request{}, err
		}
		// delta applied inline; the month lock is already held
		if err := s.store.ApplyDelta(ctx, tenantID, req.EmployeeID, req.RequestedStart, req.PlannedHours.Neg(), decimal.Zero); err != nil {
			return Request{}, err
		}
		s.notify(ctx, tenantID, req.EmployeeID, "overtime_rejected", "overtime request rejected: "+comments)
		return req, nil
	}

	req.CurrentLevel++
	if req.CurrentLevel >= len(req.RequiredLevels) {
		req.Status = StatusApproved
		if err := s.updateGuarded(ctx, tenantID, req, "decide", StatusPending); err != nil {
			return Request{}, err
		}
		s.notify(ctx, tenantID, req.EmployeeID, "overtime_approved", "overtime request approved")
		return req, nil
	}
	if err := s.updateGuarded(ctx, tenantID, req, "decide", StatusPending); err != nil {
		return Request{}, err
	}
	s.notify(ctx, tenantID, req.EmployeeID, "overtime_escalated",
		"overtime request needs "+req.RequiredLevels[req.CurrentLevel].Role+" approval")
	return req, nil
}

// Start records the actual start of approved overtime work.
func (s *Service) Start(ctx context.Context, tenantID, requestID string, at time.Time) (Request, error) {
	req, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	if req.Status != StatusApproved {
		return Request{}, &InvalidTransitionError{From: req.Status, Action: "start"}
	}
	if at.IsZero() {
		at = time.Now()
	}
	req.Status = StatusInProgress
	req.ActualStart = &at
	if err := s.updateGuarded(ctx, tenantID, req, "start", StatusApproved); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Complete recomputes hours and pay from the actual window; the original
// estimate is never trusted. Tracking moves by the difference between
// actual and planned hours and picks up the payment.
func (s *Service) Complete(ctx context.Context, tenantID, requestID string, actualEnd time.Time) (CompletionResult, error) {
	req, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return CompletionResult{}, err
	}
	if req.Status != StatusInProgress || req.ActualStart == nil {
		return CompletionResult{}, &InvalidTransitionError{From: req.Status, Action: "complete"}
	}
	actualHours, err := WindowHours(*req.ActualStart, actualEnd)
	if err != nil {
		return CompletionResult{}, err
	}

	emp, err := s.employees.Get(ctx, tenantID, req.EmployeeID)
	if err != nil {
		return CompletionResult{}, err
	}
	rules, err := s.store.RulesForYear(ctx, tenantID, req.Country, req.RequestedStart.Year())
	if err != nil {
		return CompletionResult{}, err
	}
	policy, err := s.policies.PolicyFor(ctx, tenantID)
	if err != nil {
		return CompletionResult{}, err
	}
	_, amount := rules.Price(emp.MonthlySalary, policy.DailyRateDivisor, req.Kind, actualHours)

	unlock := s.locks.Lock(monthKey(req.EmployeeID, req.RequestedStart))
	defer unlock()

	planned := req.PlannedHours
	req.Status = StatusCompleted
	req.ActualEnd = &actualEnd
	req.ActualHours = actualHours
	req.Amount = amount
	// The guarded write makes this transition single-shot: a racing duplicate
	// loses the compare-and-set and never reaches the tracking delta.
	if err := s.updateGuarded(ctx, tenantID, req, "complete", StatusInProgress); err != nil {
		return CompletionResult{}, err
	}
	if err := s.store.ApplyDelta(ctx, tenantID, req.EmployeeID, req.RequestedStart, actualHours.Sub(planned), amount); err != nil {
		return CompletionResult{}, err
	}

	s.logger.Info("overtime completed",
		"requestId", requestID,
		"planned", planned,
		"actual", actualHours,
		"amount", amount)
	return CompletionResult{
		RequestID:    requestID,
		PlannedHours: planned,
		ActualHours:  actualHours,
		Payment:      amount,
	}, nil
}

// Cancel is allowed from any non-terminal state. Cancelling before
// completion has no payroll effect; the planned hours are released.
func (s *Service) Cancel(ctx context.Context, tenantID, requestID string) (Request, error) {
	req, err := s.store.GetRequest(ctx, tenantID, requestID)
	if err != nil {
		return Request{}, err
	}
	switch req.Status {
	case StatusPending, StatusApproved, StatusInProgress:
	default:
		return Request{}, &InvalidTransitionError{From: req.Status, Action: "cancel"}
	}
	from := req.Status
	req.Status = StatusCancelled
	if err := s.updateGuarded(ctx, tenantID, req, "cancel", from); err != nil {
		return Request{}, err
	}
	if err := s.release(ctx, tenantID, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// release gives the planned hours back to the accumulators.
func (s *Service) release(ctx context.Context, tenantID string, req Request) error {
	unlock := s.locks.Lock(monthKey(req.EmployeeID, req.RequestedStart))
	defer unlock()
	return s.store.ApplyDelta(ctx, tenantID, req.EmployeeID, req.RequestedStart, req.PlannedHours.Neg(), decimal.Zero)
}

func (s *Service) Get(ctx context.Context, tenantID, requestID string) (Request, error) {
	return s.store.GetRequest(ctx, tenantID, requestID)
}

func (s *Service) List(ctx context.Context, tenantID, employeeID, status string, limit, offset int) ([]Request, error) {
	return s.store.ListRequests(ctx, tenantID, employeeID, status, limit, offset)
}

// ListPastDeadline feeds the escalation sweeper. The workflow itself stays
// time-free; scheduling belongs to the jobs layer.
func (s *Service) ListPastDeadline(ctx context.Context, tenantID string, now time.Time) ([]Request, error) {
	return s.store.ListPastDeadline(ctx, tenantID, now)
}

// EscalatePastDeadline notifies the pending level for every overdue request
// and pushes the deadline forward so the next sweep does not renotify.
func (s *Service) EscalatePastDeadline(ctx context.Context, tenantID string, now time.Time) (int, error) {
	overdue, err := s.store.ListPastDeadline(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	escalated := 0
	for _, req := range overdue {
		deadline := now.Add(defaultDeadlineHours * time.Hour)
		req.Deadline = &deadline
		moved, err := s.store.UpdateRequest(ctx, tenantID, req, StatusPending)
		if err != nil {
			return escalated, err
		}
		if !moved {
			// decided while the sweep was running
			continue
		}
		role := "hr"
		if req.CurrentLevel < len(req.RequiredLevels) {
			role = req.RequiredLevels[req.CurrentLevel].Role
		}
		s.notify(ctx, tenantID, req.EmployeeID, "overtime_escalated",
			"overtime request past approval deadline, waiting on "+role)
		escalated++
	}
	return escalated, nil
}

// Summary returns the monthly accumulators with breach flags.
func (s *Service) Summary(ctx context.Context, tenantID, employeeID string, year, month int) (Summary, error) {
	tracking, err := s.store.Tracking(ctx, tenantID, employeeID, year, month)
	if err != nil {
		return Summary{}, err
	}
	annual, err := s.store.AnnualHours(ctx, tenantID, employeeID, year)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{
		EmployeeID:  employeeID,
		Year:        year,
		Month:       month,
		Hours:       tracking.Hours,
		Amount:      tracking.Amount,
		AnnualHours: annual,
	}

	emp, err := s.employees.Get(ctx, tenantID, employeeID)
	if err != nil {
		return Summary{}, err
	}
	rules, err := s.store.RulesForYear(ctx, tenantID, emp.Country, year)
	var missing *MissingRulesError
	if errors.As(err, &missing) {
		return out, nil
	}
	if err != nil {
		return Summary{}, err
	}
	if !rules.MaxMonthly.IsZero() {
		out.MonthlyOver = tracking.Hours.GreaterThanOrEqual(rules.MaxMonthly)
	}
	if !rules.MaxAnnual.IsZero() {
		out.AnnualOver = annual.GreaterThanOrEqual(rules.MaxAnnual)
	}
	return out, nil
}

// CompletedEarnings lets payroll pull completed overtime inside a period
// window. Pull by window keeps payroll recalculation idempotent.
func (s *Service) CompletedEarnings(ctx context.Context, tenantID, employeeID string, periodStart, periodEnd time.Time) ([]payroll.OvertimeEarning, error) {
	completed, err := s.store.ListCompleted(ctx, tenantID, employeeID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	earnings := make([]payroll.OvertimeEarning, 0, len(completed))
	for _, req := range completed {
		earnings = append(earnings, payroll.OvertimeEarning{
			RequestID: req.ID,
			Hours:     req.ActualHours,
			Amount:    req.Amount,
		})
	}
	return earnings, nil
}

func (s *Service) RulesForYear(ctx context.Context, tenantID, country string, year int) (CountryRules, error) {
	return s.store.RulesForYear(ctx, tenantID, country, year)
}

func (s *Service) InsertRules(ctx context.Context, tenantID string, rules CountryRules) (string, error) {
	if err := rules.Validate(); err != nil {
		return "", err
	}
	return s.store.InsertRules(ctx, tenantID, rules)
}

func (s *Service) ListRules(ctx context.Context, tenantID string) ([]CountryRules, error) {
	return s.store.ListRules(ctx, tenantID)
}

// updateGuarded writes the request only while its stored status is still one
// of from. A lost race surfaces the real current state as an invalid
// transition instead of applying side effects twice.
func (s *Service) updateGuarded(ctx context.Context, tenantID string, req Request, action string, from ...string) error {
	moved, err := s.store.UpdateRequest(ctx, tenantID, req, from...)
	if err != nil {
		return err
	}
	if !moved {
		current, err := s.store.GetRequest(ctx, tenantID, req.ID)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{From: current.Status, Action: action}
	}
	return nil
}

func (s *Service) notify(ctx context.Context, tenantID, employeeID, kind, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, tenantID, employeeID, kind, message); err != nil {
		s.logger.Error("notification dispatch failed", "kind", kind, "error", err)
	}
}
