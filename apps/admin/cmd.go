package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sqlx.DB
	profSvc   *profile.Service
	notifRepo notification.Repository
	feed      notification.Feed
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [COMMAND] - run DB migrations (default: up)")
	fmt.Println("  addprofile -id ID -email EMAIL -name NAME -role ROLE [-phone PHONE] - register a profile")
	fmt.Println("  profiles - list registered profiles")
	fmt.Println("  notify -user ID -title TITLE -message MESSAGE [-type TYPE] - dispatch a notification")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addProfileCmd := flag.NewFlagSet("addprofile", flag.ExitOnError)
	addProfileID := addProfileCmd.String("id", "", "The identity provider's ID for the profile.")
	addProfileEmail := addProfileCmd.String("email", "", "The profile's email address.")
	addProfileName := addProfileCmd.String("name", "", "The profile's full name.")
	addProfileRole := addProfileCmd.String("role", profile.RoleEmployee, "One of: farmer, employee, supervisor, admin.")
	addProfilePhone := addProfileCmd.String("phone", "", "The profile's phone number (optional).")

	notifyCmd := flag.NewFlagSet("notify", flag.ExitOnError)
	notifyUser := notifyCmd.String("user", "", "The recipient profile's ID.")
	notifyTitle := notifyCmd.String("title", "", "The notification title.")
	notifyMessage := notifyCmd.String("message", "", "The notification message.")
	notifyType := notifyCmd.String("type", notification.TypeSystem, "One of: application, task, leave, system, other.")

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])
	case "addprofile":
		if err := addProfileCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addProfileID == "" || *addProfileEmail == "" || *addProfileName == "" {
			addProfileCmd.Usage()
			return errHelp
		}
		return cli.addProfile(*addProfileID, *addProfileEmail, *addProfileName, *addProfileRole, *addProfilePhone)
	case "profiles":
		return cli.listProfiles()
	case "notify":
		if err := notifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *notifyUser == "" || *notifyTitle == "" || *notifyMessage == "" {
			notifyCmd.Usage()
			return errHelp
		}
		return cli.notify(*notifyUser, *notifyTitle, *notifyMessage, *notifyType)
	default:
		cli.printUsage()
		return errHelp
	}
}
