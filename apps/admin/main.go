package main

import (
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/backend/postgres"
	"github.com/trezcool/elimu/backend/supabase"
	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/quiz"
	emailsvc "github.com/trezcool/elimu/services/email"
	logsvc "github.com/trezcool/elimu/services/logger"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	appLogger := logsvc.NewStdLogger(logger)

	cli, cleanup, err := setUpCLI(conf, appLogger)
	errAndDie(err)
	defer cleanup()

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpCLI(conf *core.Config, appLogger core.Logger) (*commandLine, func(), error) {
	cleanup := func() {}
	cli := &commandLine{}

	if conf.BackendConfigured() {
		cli.client = supabase.Open(conf, appLogger)
	} else {
		if err := postgres.CreateIfNotExist(conf); err != nil {
			return nil, cleanup, err
		}
		db, err := postgres.OpenDB(conf)
		if err != nil {
			return nil, cleanup, err
		}
		cli.db = db
		cli.client = postgres.Open(db, conf, appLogger)
		cleanup = func() { _ = db.Close() }
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	quiz.InitValidators(validate, translator)

	cli.courseSvc = course.NewService(cli.client, emailsvc.NewConsoleService(conf), validate, appLogger)
	return cli, cleanup, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
