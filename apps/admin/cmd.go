package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/elimu/backend"
	"github.com/trezcool/elimu/core/course"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations require the local database backend")
)

type commandLine struct {
	client    backend.Client
	courseSvc *course.Service
	db        *sqlx.DB // nil unless running on the local database backend
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createaccount -email EMAIL -name NAME [-role ROLE] - create an account; the password is prompted next")
	fmt.Println("  setrole -email EMAIL -role ROLE                    - change an account's role")
	fmt.Println("  assigncourse -email EMAIL -course COURSE_ID        - enroll an account in a course")
	fmt.Println("  migrate COMMAND [ARGS]                             - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createCmd := flag.NewFlagSet("createaccount", flag.ExitOnError)
	createEmail := createCmd.String("email", "", "The account's email.")
	createName := createCmd.String("name", "", "The account's display name.")
	createRole := createCmd.String("role", backend.DefaultRole, "One of student, trainer or admin.")

	setRoleCmd := flag.NewFlagSet("setrole", flag.ExitOnError)
	setRoleEmail := setRoleCmd.String("email", "", "The account's email.")
	setRoleRole := setRoleCmd.String("role", "", "One of student, trainer or admin.")

	assignCmd := flag.NewFlagSet("assigncourse", flag.ExitOnError)
	assignEmail := assignCmd.String("email", "", "The account's email.")
	assignCourse := assignCmd.String("course", "", "The course ID.")

	switch args[1] {
	case "createaccount":
		if err := createCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createEmail == "" || *createName == "" {
			createCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createCmd.Usage()
			return errHelp
		}
		return cli.createAccount(*createEmail, *createName, string(pwd), *createRole)
	case "setrole":
		if err := setRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *setRoleEmail == "" || *setRoleRole == "" {
			setRoleCmd.Usage()
			return errHelp
		}
		return cli.setRole(*setRoleEmail, *setRoleRole)
	case "assigncourse":
		if err := assignCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *assignEmail == "" || *assignCourse == "" {
			assignCmd.Usage()
			return errHelp
		}
		return cli.assignCourse(*assignEmail, *assignCourse)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
