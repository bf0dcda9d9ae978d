package dummydb

import (
	"sync"

	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
)

type (
	DB struct {
		user        *userTable
		position    *positionTable
		application *applicationTable
		checkin     *checkinTable
		message     *messageTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	positionTable struct {
		sync.RWMutex
		table map[string]*position.Position
	}

	applicationTable struct {
		sync.RWMutex
		table map[string]*application.Application
	}

	checkinTable struct {
		sync.RWMutex
		table map[string]*checkin.Record
		// byDay mirrors the DB unique index on (student_id, checkin_date):
		// inserts go through it while holding the write lock, so a racing
		// duplicate observes the existing key.
		byDay map[dayKey]string
	}

	dayKey struct {
		studentID string
		date      string
	}

	messageTable struct {
		sync.RWMutex
		table map[string]*message.Message
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		position:    &positionTable{table: make(map[string]*position.Position)},
		application: &applicationTable{table: make(map[string]*application.Application)},
		checkin: &checkinTable{
			table: make(map[string]*checkin.Record),
			byDay: make(map[dayKey]string),
		},
		message: &messageTable{table: make(map[string]*message.Message)},
	}
	return db, nil
}
