package main

import (
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/elimu/apps/api/echo"
	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/backend/disabled"
	"github.com/trezcool/elimu/backend/inmem"
	"github.com/trezcool/elimu/backend/postgres"
	"github.com/trezcool/elimu/backend/supabase"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
)

func main() {
	demo := flag.Bool("demo", false, "run with an in-memory backend seeded with demo data")
	flag.Parse()

	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up backend client
	client, cleanup, err := setUpClient(conf, logger, *demo)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up backend: %v", err), err)
	}
	defer cleanup()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)

	courseSvc := course.NewService(client, mailSvc, validate, logger)
	quizSvc := quiz.NewService(client, validate, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	if !client.Configured() {
		logger.Warn("backend not configured; auth and data endpoints will refuse requests")
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Client:     client,
			CourseSvc:  courseSvc,
			QuizSvc:    quizSvc,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpClient picks the backend: a hosted service when configured, the local
// database when one is set up, the seeded in-memory client in demo mode, and
// the validating disabled stub otherwise.
func setUpClient(conf *core.Config, logger core.Logger, demo bool) (backend.Client, func(), error) {
	noop := func() {}

	if conf.BackendConfigured() {
		return supabase.Open(conf, logger), noop, nil
	}

	if demo {
		client := inmem.Open(conf, logger)
		if err := seedDemo(context.Background(), client, logger); err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	}

	if conf.Database.Name != "" {
		if err := postgres.CreateIfNotExist(conf); err != nil {
			return nil, noop, err
		}
		db, err := postgres.OpenDB(conf)
		if err != nil {
			return nil, noop, err
		}
		if err = postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, noop, err
		}
		cleanup := func() {
			if err := db.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing database: %v", err), err)
			}
		}
		return postgres.Open(db, conf, logger), cleanup, nil
	}

	return disabled.Open(), noop, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
