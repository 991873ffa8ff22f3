package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"leave-portal/internal/events"
	leaveerrors "leave-portal/internal/leave/errors"
	"leave-portal/internal/leavetype"
	"leave-portal/internal/messaging/kafka"
	"leave-portal/internal/observability"
	"leave-portal/internal/session"
	"leave-portal/internal/shared/apperror"
	"leave-portal/internal/shared/contextutil"
)

const maxCalendarWindowDays = 366

// CatalogProvider supplies the current leave type catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) (leavetype.Catalog, error)
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Apply(ctx context.Context, actor session.Identity, req ApplyLeaveRequest) (ApplyLeaveResponse, error)
	History(ctx context.Context, actor session.Identity) ([]LeaveResponse, error)
	Balance(ctx context.Context, actor session.Identity, year int) ([]BalanceResponse, error)
	Cancel(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error)

	PendingRequests(ctx context.Context, actor session.Identity) ([]LeaveResponse, error)
	Approve(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error)
	Decline(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error)
	ManagerHistory(ctx context.Context, actor session.Identity) ([]LeaveResponse, error)
	Report(ctx context.Context, actor session.Identity) ([]ReportRow, error)
	Calendar(ctx context.Context, actor session.Identity, from, to string) (CalendarResponse, error)
}

type Option func(*service)

func WithOutbox(outbox kafka.OutboxRepository) Option {
	return func(s *service) { s.outbox = outbox }
}

func WithCalendar(cal Calendar) Option {
	return func(s *service) {
		if cal != nil {
			s.calendar = cal
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger.Named("leave.service")
		}
	}
}

type service struct {
	db       *sql.DB
	repo     Repository
	catalog  CatalogProvider
	outbox   kafka.OutboxRepository
	calendar Calendar
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, catalog CatalogProvider, opts ...Option) Service {
	s := &service{
		db:       db,
		repo:     repo,
		catalog:  catalog,
		calendar: CalendarDays{},
		now:      time.Now,
		logger:   zap.L().Named("leave.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Apply(ctx context.Context, actor session.Identity, req ApplyLeaveRequest) (ApplyLeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("apply leave requested",
		zap.String("employee_id", actor.UserID.String()),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	if _, err := Authorize(nil, ActionApply, actor); err != nil {
		s.record(ActionApply, err)
		return ApplyLeaveResponse{}, err
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		log.Error("apply leave catalog unavailable", zap.Error(err))
		s.record(ActionApply, err)
		return ApplyLeaveResponse{}, err
	}

	now := s.now()
	if res := Validate(req.Candidate(), catalog, now); !res.OK() {
		log.Warn("apply leave validation failed", zap.Any("fields", map[string]string(res)))
		err := res.Err()
		s.record(ActionApply, err)
		return ApplyLeaveResponse{}, err
	}
	// Validate guarantees both dates parse.
	start, _ := ParseDate(req.StartDate)
	end, _ := ParseDate(req.EndDate)
	candidate := NewDateRange(start, end)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("apply leave begin tx failed", zap.Error(err))
		return ApplyLeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.LockEmployee(ctx, actor.UserID.String()); err != nil {
		log.Error("apply leave lock employee failed", zap.Error(err))
		return ApplyLeaveResponse{}, err
	}
	existing, err := qtx.FindByEmployee(ctx, actor.UserID.String())
	if err != nil {
		log.Error("apply leave load history failed", zap.Error(err))
		return ApplyLeaveResponse{}, err
	}
	active := activeOnly(existing)

	requested := s.calendar.WorkingDays(start, end)
	if lt, ok := catalog.Lookup(req.LeaveType); ok && lt.MaxDaysPerYear > 0 {
		used := UsedDays(active, lt.Code, start.Year(), s.calendar)
		if used+requested > lt.MaxDaysPerYear {
			log.Warn("apply leave allowance exceeded",
				zap.String("leave_type", lt.Code),
				zap.Int("used", used),
				zap.Int("requested", requested),
				zap.Int("max", lt.MaxDaysPerYear),
			)
			err := leaveerrors.ErrAllowanceExceeded.WithDetails(map[string]int{
				"used_days":         used,
				"requested_days":    requested,
				"max_days_per_year": lt.MaxDaysPerYear,
			})
			s.record(ActionApply, err)
			return ApplyLeaveResponse{}, err
		}
	}

	var warnings []string
	for _, c := range ConflictingLeaves(candidate, active) {
		warnings = append(warnings, fmt.Sprintf(
			"overlaps your %s %s leave from %s to %s",
			c.Status, c.LeaveType, c.StartDate.Format(DateLayout), c.EndDate.Format(DateLayout),
		))
	}

	l := &Leave{
		ID:         uuid.New(),
		EmployeeID: actor.UserID,
		LeaveType:  req.LeaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     strings.TrimSpace(req.Reason),
		Status:     StatusPending,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	if err := qtx.Create(ctx, l); err != nil {
		log.Error("apply leave persist failed", zap.Error(err))
		return ApplyLeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, *l, "", actor, events.LeaveApplied, now); err != nil {
		return ApplyLeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("apply leave commit failed", zap.Error(err))
		return ApplyLeaveResponse{}, err
	}
	s.record(ActionApply, nil)

	log.Info("apply leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("employee_id", actor.UserID.String()),
		zap.Int("working_days", requested),
		zap.Int("overlaps", len(warnings)),
	)

	l.EmployeeName = actor.FullName()
	return ApplyLeaveResponse{LeaveResponse: ToResponse(*l, s.calendar), Warnings: warnings}, nil
}

func (s *service) History(ctx context.Context, actor session.Identity) ([]LeaveResponse, error) {
	leaves, err := s.repo.FindByEmployee(ctx, actor.UserID.String())
	if err != nil {
		return nil, err
	}
	return EmployeeHistory(leaves, actor.UserID, s.calendar), nil
}

func (s *service) Balance(ctx context.Context, actor session.Identity, year int) ([]BalanceResponse, error) {
	if year <= 0 {
		year = s.now().Year()
	}
	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	leaves, err := s.repo.FindByEmployee(ctx, actor.UserID.String())
	if err != nil {
		return nil, err
	}
	return Balance(leaves, catalog, year, s.calendar), nil
}

func (s *service) Approve(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, ActionApprove)
}

func (s *service) Decline(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, ActionDecline)
}

func (s *service) Cancel(ctx context.Context, actor session.Identity, id string) (LeaveResponse, error) {
	return s.transition(ctx, actor, id, ActionCancel)
}

func (s *service) PendingRequests(ctx context.Context, actor session.Identity) ([]LeaveResponse, error) {
	if !actor.IsManager() {
		return nil, leaveerrors.ErrManagerOnly
	}
	leaves, err := s.repo.FindByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	return PendingQueue(leaves, s.calendar), nil
}

func (s *service) ManagerHistory(ctx context.Context, actor session.Identity) ([]LeaveResponse, error) {
	if !actor.IsManager() {
		return nil, leaveerrors.ErrManagerOnly
	}
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ManagerView(leaves, s.calendar), nil
}

func (s *service) Report(ctx context.Context, actor session.Identity) ([]ReportRow, error) {
	if !actor.IsManager() {
		return nil, leaveerrors.ErrManagerOnly
	}
	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return Report(leaves), nil
}

func (s *service) Calendar(ctx context.Context, actor session.Identity, from, to string) (CalendarResponse, error) {
	if !actor.IsManager() {
		return CalendarResponse{}, leaveerrors.ErrManagerOnly
	}
	fromDate, err := ParseDate(from)
	if err != nil {
		return CalendarResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	toDate, err := ParseDate(to)
	if err != nil {
		return CalendarResponse{}, leaveerrors.ErrInvalidDateFormat
	}
	window := NewDateRange(fromDate, toDate)
	if !window.Valid() {
		return CalendarResponse{}, leaveerrors.ErrInvalidDateRange
	}
	if window.Days() > maxCalendarWindowDays {
		return CalendarResponse{}, leaveerrors.ErrCalendarWindowTooLarge
	}

	leaves, err := s.repo.FindInRange(ctx, window.Start, window.End)
	if err != nil {
		return CalendarResponse{}, err
	}
	return CalendarResponse{
		From: window.Start.Format(DateLayout),
		To:   window.End.Format(DateLayout),
		Days: OccupiedDays(leaves, window),
	}, nil
}

func (s *service) transition(ctx context.Context, actor session.Identity, id string, action Action) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger).With(
		zap.String("leave_id", id),
		zap.String("action", string(action)),
		zap.String("actor_id", actor.UserID.String()),
	)
	log.Debug("leave transition requested")

	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("leave transition begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		log.Error("leave transition load failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	to, err := Authorize(l, action, actor)
	if err != nil {
		log.Warn("leave transition refused",
			zap.String("status", string(l.Status)),
			zap.Error(err),
		)
		s.record(action, err)
		return LeaveResponse{}, err
	}

	now := s.now().UTC()
	change := StatusChange{ID: id, From: l.Status, To: to, At: now}
	if action == ActionApprove || action == ActionDecline {
		decider := actor.UserID
		change.DecidedBy = &decider
	}

	ok, err := qtx.UpdateStatus(ctx, change)
	if err != nil {
		log.Error("leave transition persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if !ok {
		log.Warn("leave transition lost race", zap.String("status", string(l.Status)))
		s.record(action, leaveerrors.ErrInvalidStatusTransition)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	from := l.Status
	l.Status = to
	l.UpdatedAt = now
	if change.DecidedBy != nil {
		l.DecidedBy = change.DecidedBy
		l.DecidedAt = &now
	}

	if err := s.enqueue(ctx, tx, *l, from, actor, eventFor(action), now); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("leave transition commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.record(action, nil)

	log.Info("leave transition success",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return ToResponse(*l, s.calendar), nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, l Leave, from Status, actor session.Identity, eventType string, at time.Time) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)
	event := events.LeaveLifecycleEvent{
		EventType:  eventType,
		RequestID:  rid,
		LeaveID:    l.ID.String(),
		EmployeeID: l.EmployeeID.String(),
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate.Format(DateLayout),
		EndDate:    l.EndDate.Format(DateLayout),
		FromStatus: string(from),
		ToStatus:   string(l.Status),
		ActorID:    actor.UserID.String(),
		ActorRole:  string(actor.Role),
		OccurredAt: at.UTC(),
	}
	row, err := kafka.NewPendingEvent(rid, kafka.AggregateLeave, l.ID.String(), eventType, events.LeaveLifecycleTopic, event)
	if err != nil {
		s.logger.Error("marshal leave event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, row); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) record(action Action, err error) {
	result := observability.ResultSuccess
	if err != nil {
		var appErr *apperror.AppError
		switch {
		case errors.Is(err, leaveerrors.ErrInvalidStatusTransition):
			result = observability.ResultConflict
		case errors.As(err, &appErr) && appErr.HTTPStatus < 500:
			result = observability.ResultRejected
		default:
			result = observability.ResultError
		}
	}
	observability.LeaveTransitions.WithLabelValues(string(action), result).Inc()
}

func eventFor(action Action) string {
	switch action {
	case ActionApprove:
		return events.LeaveApproved
	case ActionDecline:
		return events.LeaveDeclined
	case ActionCancel:
		return events.LeaveCancelled
	default:
		return events.LeaveApplied
	}
}

func activeOnly(leaves []Leave) []Leave {
	out := make([]Leave, 0, len(leaves))
	for _, l := range leaves {
		if isActive(l.Status) {
			out = append(out, l)
		}
	}
	return out
}
