package checkin_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
	emailsvc "github.com/mzalendo/kazi/services/email"
	dummydb "github.com/mzalendo/kazi/storage/database/dummy"
	testutil "github.com/mzalendo/kazi/tests"
)

// latitude offsets that round to the named haversine distances from origin
const (
	offset250m = 0.0022483040
	offset200m = 0.0017986432
	offset50m  = 0.0004496608
)

var testConf = core.CheckinConf{
	DefaultRadius: 200,
	WindowStart:   "09:00",
	WindowEnd:     "18:00",
	GraceMinutes:  0,
	TermWorkdays:  60,
	Timezone:      "UTC",
}

type testLogger struct{}

func (testLogger) Enable(bool)                  {}
func (testLogger) Debug(string, ...interface{}) {}
func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}
func (testLogger) Fatal(string, ...interface{}) {}

type fixture struct {
	svc     *checkin.Service
	repo    checkin.Repository
	msgSvc  *message.Service
	student user.User
	pos     position.Position
}

// newFixture wires the engine against the in-memory repos with an approved
// application in place and the clock pinned to noon inside the window.
func newFixture(t *testing.T) *fixture {
	db := testutil.OpenDB(t)

	usrRepo := dummydb.NewUserRepository(db)
	posRepo := dummydb.NewPositionRepository(db)
	appRepo := dummydb.NewApplicationRepository(db)
	chkRepo := dummydb.NewCheckinRepository(db)
	msgRepo := dummydb.NewMessageRepository(db)

	msgSvc := message.NewService(msgRepo)
	svc := checkin.NewService(
		chkRepo,
		position.NewService(posRepo),
		application.NewService(appRepo),
		user.NewService(usrRepo),
		msgSvc,
		emailsvc.NewConsoleServiceMock(),
		testConf,
		testLogger{},
	)
	svc.Clock = func() time.Time {
		return time.Date(2021, 3, 15, 12, 0, 0, 0, time.UTC)
	}

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach", "teach@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "stud", "stud@test.cd", "", user.RoleStudent, true)
	pos := testutil.CreatePosition(t, posRepo, teacher.ID, "Intern", 0, 0, 200, "09:00", "18:00", "UTC")
	testutil.CreateApplication(t, appRepo, student.ID, pos.ID, application.StatusApproved)

	return &fixture{svc: svc, repo: chkRepo, msgSvc: msgSvc, student: student, pos: pos}
}

func (f *fixture) attempt(lat, lng float64) (checkin.Result, error) {
	return f.svc.Check(context.Background(), f.student.ID, checkin.NewCheckin{
		PositionID: f.pos.ID,
		Latitude:   lat,
		Longitude:  lng,
	})
}

func (f *fixture) recordCount(t *testing.T) int {
	records, err := f.repo.QueryRecords(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("QueryRecords(): %v", err)
	}
	return len(records)
}

func TestCheckNormal(t *testing.T) {
	f := newFixture(t)

	res, err := f.attempt(0, 0) // on the spot, within window
	assert.NoError(t, err)
	assert.Equal(t, checkin.StatusNormal, res.Record.Status)
	assert.Equal(t, 0.0, res.Record.Distance)
	assert.Equal(t, 0, res.LateMinutes)
	assert.Equal(t, "2021-03-15", res.Record.CheckinDate)
	assert.NotEmpty(t, res.Record.ID)
	assert.Equal(t, 1, f.recordCount(t))

	// in-app notification written
	msgs, err := f.msgSvc.QueryForUser(context.Background(), f.student.ID)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, message.TypeCheckin, msgs[0].Type)
}

func TestCheckOutOfRange(t *testing.T) {
	f := newFixture(t)

	_, err := f.attempt(offset250m, 0)
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodeOutOfRange, rej.Code)
	assert.Equal(t, 250.0, rej.Context["distance"])
	assert.Equal(t, 200.0, rej.Context["allowed"])
	assert.Equal(t, 0, f.recordCount(t))

	// retry with unchanged inputs is idempotent
	_, err = f.attempt(offset250m, 0)
	rej2, _ := checkin.AsRejection(err)
	assert.Equal(t, rej.Code, rej2.Code)
	assert.Equal(t, rej.Context["distance"], rej2.Context["distance"])
}

func TestCheckBoundaryDistanceAccepted(t *testing.T) {
	f := newFixture(t)

	// exactly on the fence: distance == radius is accepted
	res, err := f.attempt(offset200m, 0)
	assert.NoError(t, err)
	assert.Equal(t, checkin.StatusNormal, res.Record.Status)
	assert.Equal(t, 200.0, res.Record.Distance)
}

func TestCheckLate(t *testing.T) {
	f := newFixture(t)
	f.svc.Clock = func() time.Time {
		return time.Date(2021, 3, 15, 18, 30, 0, 0, time.UTC)
	}
	emailsvc.ClearSentMessages()

	res, err := f.attempt(offset50m, 0)
	assert.NoError(t, err)
	assert.Equal(t, checkin.StatusLate, res.Record.Status)
	assert.Equal(t, 30, res.LateMinutes)
	assert.Contains(t, res.Record.AbnormalReason, "late by 30 minutes")

	// publisher is mailed about the late check-in
	assert.Len(t, emailsvc.SentMessages, 1)
	assert.Equal(t, "Late check-in", emailsvc.SentMessages[0].Subject)
}

func TestCheckAlreadyCheckedIn(t *testing.T) {
	f := newFixture(t)

	_, err := f.attempt(0, 0)
	assert.NoError(t, err)

	_, err = f.attempt(0, 0)
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodeAlreadyCheckedIn, rej.Code)
	assert.Equal(t, 1, f.recordCount(t))
}

func TestCheckBeforeWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.Clock = func() time.Time {
		return time.Date(2021, 3, 15, 8, 30, 0, 0, time.UTC)
	}

	_, err := f.attempt(0, 0)
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodeNotInCheckinWindow, rej.Code)
	assert.Equal(t, "09:00", rej.Context["window_start"])
	assert.Equal(t, "18:00", rej.Context["window_end"])
	assert.Equal(t, 0, f.recordCount(t))
}

func TestCheckInvalidCoordinates(t *testing.T) {
	f := newFixture(t)

	for _, coords := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		_, err := f.attempt(coords[0], coords[1])
		rej, ok := checkin.AsRejection(err)
		if !ok {
			t.Fatalf("Check(%v) err = %v; want Rejection", coords, err)
		}
		assert.Equal(t, checkin.CodeInvalidCoordinates, rej.Code)
	}
	assert.Equal(t, 0, f.recordCount(t))
}

func TestCheckPositionNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Check(context.Background(), f.student.ID, checkin.NewCheckin{
		PositionID: "nope",
	})
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodePositionNotFound, rej.Code)
}

func TestCheckNoApprovedApplication(t *testing.T) {
	f := newFixture(t)

	// a student without any application for the position
	_, err := f.svc.Check(context.Background(), "outsider-id", checkin.NewCheckin{PositionID: f.pos.ID})
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodeNoApprovedApplication, rej.Code)
}

func TestCheckPositionDefaultsApply(t *testing.T) {
	f := newFixture(t)

	// a position with no geofence config of its own falls back to defaults
	db := testutil.OpenDB(t)
	usrRepo := dummydb.NewUserRepository(db)
	posRepo := dummydb.NewPositionRepository(db)
	appRepo := dummydb.NewApplicationRepository(db)
	chkRepo := dummydb.NewCheckinRepository(db)

	svc := checkin.NewService(
		chkRepo,
		position.NewService(posRepo),
		application.NewService(appRepo),
		user.NewService(usrRepo),
		message.NewService(dummydb.NewMessageRepository(db)),
		emailsvc.NewConsoleServiceMock(),
		testConf,
		testLogger{},
	)
	svc.Clock = f.svc.Clock

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teach2", "teach2@test.cd", "", user.RoleTeacher, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "stud2", "stud2@test.cd", "", user.RoleStudent, true)
	pos := testutil.CreatePosition(t, posRepo, teacher.ID, "Bare", 0, 0, 0, "", "", "")
	testutil.CreateApplication(t, appRepo, student.ID, pos.ID, application.StatusApproved)

	// 250m > default 200m radius
	_, err := svc.Check(context.Background(), student.ID, checkin.NewCheckin{
		PositionID: pos.ID,
		Latitude:   offset250m,
	})
	rej, ok := checkin.AsRejection(err)
	if !ok {
		t.Fatalf("Check() err = %v; want Rejection", err)
	}
	assert.Equal(t, checkin.CodeOutOfRange, rej.Code)
	assert.Equal(t, 200.0, rej.Context["allowed"])
}

// Concurrent duplicate submissions must produce exactly one record; the
// losers observe the uniqueness constraint, not a second row.
func TestCheckConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)

	const n = 12
	var wg sync.WaitGroup
	results := make([]error, n)

	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := f.attempt(0, 0)
			results[i] = err
		}(i)
	}
	wg.Wait()

	var accepted, duplicates int
	for _, err := range results {
		if err == nil {
			accepted++
			continue
		}
		rej, ok := checkin.AsRejection(err)
		if !ok {
			t.Fatalf("Check() err = %v; want Rejection", err)
		}
		if rej.Code == checkin.CodeAlreadyCheckedIn {
			duplicates++
		} else {
			t.Errorf("unexpected rejection %s", rej.Code)
		}
	}

	assert.Equal(t, 1, accepted)
	assert.Equal(t, n-1, duplicates)
	assert.Equal(t, 1, f.recordCount(t))
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)

	day := func(d int) string { return time.Date(2021, 3, d, 0, 0, 0, 0, time.UTC).Format(checkin.DateLayout) }
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	for d := 1; d <= 9; d++ {
		status := checkin.StatusNormal
		if d%3 == 0 {
			status = checkin.StatusLate
		}
		testutil.CreateCheckin(t, f.repo, f.student.ID, f.pos.ID, day(d), now.AddDate(0, 0, d-1), status)
	}

	stats, err := f.svc.Statistics(context.Background(), &checkin.QueryFilter{StudentID: f.student.ID})
	assert.NoError(t, err)
	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 6, stats.NormalCount)
	assert.Equal(t, 3, stats.LateCount)
	// 9 of 60 working days
	assert.Equal(t, 15.0, stats.AttendanceRate)
}

func TestStatisticsRateRounding(t *testing.T) {
	f := newFixture(t)

	day := func(d int) string { return time.Date(2021, 3, d, 0, 0, 0, 0, time.UTC).Format(checkin.DateLayout) }
	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	for d := 1; d <= 7; d++ {
		testutil.CreateCheckin(t, f.repo, f.student.ID, f.pos.ID, day(d), now.AddDate(0, 0, d-1), checkin.StatusNormal)
	}

	stats, err := f.svc.Statistics(context.Background(), &checkin.QueryFilter{StudentID: f.student.ID})
	assert.NoError(t, err)
	// 7 of 60 working days is 11.666...%; rounded to 11.67, not truncated to 11.66
	assert.Equal(t, 11.67, stats.AttendanceRate)
}
