package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
	dummydb "github.com/mzalendo/kazi/storage/database/dummy"
)

func OpenDB(t *testing.T) *dummydb.DB {
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("OpenDB(): %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	realName, uname, email, pwd, role string,
	isActive bool,
) user.User {
	tstamp := time.Now().UTC()
	usr := user.User{
		RealName:  realName,
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func CreatePosition(
	t *testing.T,
	repo position.Repository,
	publisherID, title string,
	lat, lng, radius float64,
	checkinStart, checkinEnd, timezone string,
) position.Position {
	tstamp := time.Now().UTC()
	pos := position.Position{
		Title:         title,
		CompanyName:   title + " Co",
		Location:      "Lubumbashi",
		Latitude:      lat,
		Longitude:     lng,
		CheckinRadius: radius,
		CheckinStart:  checkinStart,
		CheckinEnd:    checkinEnd,
		Timezone:      timezone,
		MaxStudents:   5,
		Status:        position.StatusOpen,
		PublisherID:   publisherID,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	}
	pos, err := repo.CreatePosition(context.Background(), pos)
	if err != nil {
		t.Fatalf("CreatePosition(): %v", err)
	}
	return pos
}

func CreateApplication(
	t *testing.T,
	repo application.Repository,
	studentID, positionID, status string,
) application.Application {
	tstamp := time.Now().UTC()
	app := application.Application{
		StudentID:  studentID,
		PositionID: positionID,
		Status:     status,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	}
	app, err := repo.CreateApplication(context.Background(), app)
	if err != nil {
		t.Fatalf("CreateApplication(): %v", err)
	}
	return app
}

func CreateCheckin(
	t *testing.T,
	repo checkin.Repository,
	studentID, positionID, date string,
	at time.Time,
	status checkin.Status,
) checkin.Record {
	rec := checkin.Record{
		StudentID:   studentID,
		PositionID:  positionID,
		CheckinDate: date,
		CheckinTime: at.UTC(),
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	}
	rec, err := repo.CreateRecord(context.Background(), rec)
	if err != nil {
		t.Fatalf("CreateCheckin(): %v", err)
	}
	return rec
}
