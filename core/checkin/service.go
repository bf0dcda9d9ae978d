package checkin

import (
	"context"
	"fmt"
	"math"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/geo"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
)

type (
	Repository interface {
		// CreateRecord inserts a Record atomically with respect to the
		// (StudentID, CheckinDate) uniqueness key: a racing duplicate insert
		// must fail with ErrAlreadyCheckedIn, not create a second row.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		HasCheckedIn(ctx context.Context, studentID, date string) (bool, error)
		// QueryRecords applies AND operation on available QueryFilter fields,
		// ordered by check-in time unless overridden.
		QueryRecords(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error)
		CountByStatus(ctx context.Context, filter *QueryFilter) (map[Status]int, error)
	}

	Service struct {
		repo    Repository
		posSvc  *position.Service
		appSvc  *application.Service
		usrSvc  *user.Service
		msgSvc  *message.Service
		mailSvc core.EmailService
		conf    core.CheckinConf
		logger  core.Logger

		// Clock supplies "now"; injected so the window gate and calendar-day
		// derivation are deterministic under test.
		Clock func() time.Time
	}
)

func NewService(
	repo Repository,
	posSvc *position.Service,
	appSvc *application.Service,
	usrSvc *user.Service,
	msgSvc *message.Service,
	mailSvc core.EmailService,
	conf core.CheckinConf,
	logger core.Logger,
) *Service {
	return &Service{
		repo:    repo,
		posSvc:  posSvc,
		appSvc:  appSvc,
		usrSvc:  usrSvc,
		msgSvc:  msgSvc,
		mailSvc: mailSvc,
		conf:    conf,
		logger:  logger,
		Clock:   time.Now,
	}
}

// Check runs the validation pipeline for a single attempt: position fetch,
// approved-application gate, uniqueness fast-path, coordinate validation,
// window gate, distance, classification, then the one atomic insert. Exactly
// one outcome per attempt: a persisted Record or a *Rejection.
func (svc *Service) Check(ctx context.Context, studentID string, nc NewCheckin) (Result, error) {
	pos, err := svc.posSvc.GetByID(ctx, nc.PositionID)
	if err != nil {
		if errors.Cause(err) == position.ErrNotFound {
			return Result{}, newPositionNotFound()
		}
		return Result{}, errors.Wrap(err, "finding position")
	}

	approved, err := svc.appSvc.HasApproved(ctx, studentID, pos.ID)
	if err != nil {
		return Result{}, errors.Wrap(err, "checking approved application")
	}
	if !approved {
		return Result{}, newNoApprovedApplication()
	}

	loc := pos.TimeLocation(svc.conf.Timezone)
	now := svc.Clock().In(loc)
	today := now.Format(DateLayout)

	// fast-path; the insert below remains the authority under races
	if checked, err := svc.repo.HasCheckedIn(ctx, studentID, today); err != nil {
		return Result{}, errors.Wrap(err, "checking today's record")
	} else if checked {
		return Result{}, newAlreadyCheckedIn()
	}

	if err := geo.ValidateCoordinates(nc.Latitude, nc.Longitude); err != nil {
		return Result{}, newInvalidCoordinates()
	}

	win := svc.window(pos)
	timing := win.Timing(now)
	lateMinutes := win.LateMinutes(now)
	distance := geo.Distance(nc.Latitude, nc.Longitude, pos.Latitude, pos.Longitude)
	allowed := pos.AllowedRadius(svc.conf.DefaultRadius)

	status, rej := Classify(distance, allowed, timing, lateMinutes, svc.conf.GraceMinutes)
	if rej != nil {
		if rej.Code == CodeNotInCheckinWindow {
			rej.Context = map[string]interface{}{"window_start": win.Start, "window_end": win.End}
		}
		svc.log(studentID, pos.ID, rej.Code, distance, allowed, lateMinutes)
		return Result{}, rej
	}

	rec := Record{
		StudentID:   studentID,
		PositionID:  pos.ID,
		CheckinDate: today,
		CheckinTime: now.UTC(),
		Latitude:    nc.Latitude,
		Longitude:   nc.Longitude,
		Distance:    distance,
		Status:      status,
		Remark:      nc.Remark,
		CreatedAt:   time.Now().UTC(),
	}
	if status == StatusLate {
		rec.AbnormalReason = fmt.Sprintf("late by %d minutes", lateMinutes)
	} else {
		lateMinutes = 0
	}

	rec, err = svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		// a concurrent duplicate lost the race against the uniqueness constraint
		if errors.Cause(err) == ErrAlreadyCheckedIn {
			return Result{}, newAlreadyCheckedIn()
		}
		return Result{}, errors.Wrap(err, "inserting check-in record")
	}

	svc.notify(ctx, rec, pos, lateMinutes)
	svc.log(studentID, pos.ID, string(status), distance, allowed, lateMinutes)
	return Result{Record: rec, LateMinutes: lateMinutes}, nil
}

func (svc *Service) window(pos position.Position) Window {
	if pos.CheckinStart == "" && pos.CheckinEnd == "" {
		return Window{Start: svc.conf.WindowStart, End: svc.conf.WindowEnd}
	}
	return Window{Start: pos.CheckinStart, End: pos.CheckinEnd}
}

// notify writes the in-app notification and, for late check-ins, mails the
// position's publisher. Failures are logged, never surfaced: the record is
// already committed.
func (svc *Service) notify(ctx context.Context, rec Record, pos position.Position, lateMinutes int) {
	content := fmt.Sprintf("Check-in recorded: status %s, %.0fm from %s", rec.Status, rec.Distance, pos.Title)
	if err := svc.msgSvc.Notify(ctx, rec.StudentID, "Check-in confirmation", content, message.TypeCheckin, rec.ID); err != nil {
		svc.logger.Error("writing check-in notification", errors.Wrap(err, "writing check-in notification"))
	}

	if rec.Status != StatusLate || svc.mailSvc == nil {
		return
	}
	publisher, err := svc.usrSvc.GetByID(ctx, pos.PublisherID)
	if err != nil || publisher.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: publisher.RealName, Address: publisher.Email}},
		Subject: "Late check-in",
		BodyStr: fmt.Sprintf("Student %s checked in %d minutes late at %s.", rec.StudentID, lateMinutes, pos.Title),
	})
}

func (svc *Service) log(studentID, positionID, outcome string, distance, allowed float64, lateMinutes int) {
	if svc.logger == nil {
		return
	}
	svc.logger.Info("checkin", map[string]interface{}{
		"student":      studentID,
		"position":     positionID,
		"outcome":      outcome,
		"distance":     distance,
		"allowed":      allowed,
		"late_minutes": lateMinutes,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Record, error) {
	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "checkin_time", Ascending: false}}
	}
	return svc.repo.QueryRecords(ctx, filter, ordering)
}

// Statistics aggregates per-status counts and an attendance rate computed
// over the term's working days.
func (svc *Service) Statistics(ctx context.Context, filter *QueryFilter) (Stats, error) {
	counts, err := svc.repo.CountByStatus(ctx, filter)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting records by status")
	}
	stats := Stats{
		NormalCount:   counts[StatusNormal],
		LateCount:     counts[StatusLate],
		AbnormalCount: counts[StatusAbnormal],
	}
	stats.Total = stats.NormalCount + stats.LateCount + stats.AbnormalCount
	if svc.conf.TermWorkdays > 0 {
		rate := float64(stats.NormalCount+stats.LateCount) / float64(svc.conf.TermWorkdays) * 100
		stats.AttendanceRate = math.Round(rate*100) / 100 // 2 decimals
	}
	return stats, nil
}
