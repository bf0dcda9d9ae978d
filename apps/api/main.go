package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/mzalendo/kazi/apps/api/echo"
	"github.com/mzalendo/kazi/core"
	"github.com/mzalendo/kazi/core/application"
	"github.com/mzalendo/kazi/core/checkin"
	"github.com/mzalendo/kazi/core/message"
	"github.com/mzalendo/kazi/core/position"
	"github.com/mzalendo/kazi/core/user"
	emailsvc "github.com/mzalendo/kazi/services/email"
	logsvc "github.com/mzalendo/kazi/services/logger"
	"github.com/mzalendo/kazi/storage/database"
	sqlxrepos "github.com/mzalendo/kazi/storage/database/sqlx"
)

const shutdownTimeout = 20 * time.Second

func main() {
	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Fatal("closing database", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	posSvc := position.NewService(sqlxrepos.NewPositionRepository(db))
	appSvc := application.NewService(sqlxrepos.NewApplicationRepository(db))
	msgSvc := message.NewService(sqlxrepos.NewMessageRepository(db))
	chkSvc := checkin.NewService(
		sqlxrepos.NewCheckinRepository(db), posSvc, appSvc, usrSvc, msgSvc, mailSvc, conf.Checkin, logger)

	// initialize app
	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// start API server
	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         logger,
			UserSvc:        usrSvc,
			PositionSvc:    posSvc,
			ApplicationSvc: appSvc,
			CheckinSvc:     chkSvc,
			MessageSvc:     msgSvc,
			Validate:       validate,
			Translator:     translator,
		},
	)

	go server.Start()

	// shutdown
	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
