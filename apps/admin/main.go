package main

import (
	"log"
	"os"

	"github.com/agridesk/portal/core"
	"github.com/agridesk/portal/core/notification"
	"github.com/agridesk/portal/core/profile"
	logsvc "github.com/agridesk/portal/services/logger"
	"github.com/agridesk/portal/services/realtime"
	"github.com/agridesk/portal/storage/database"
	sqlxrepos "github.com/agridesk/portal/storage/database/sqlx"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	var feed notification.Feed
	if conf.Realtime.URL != "" {
		natsFeed, err := realtime.NewNatsFeed(conf.Realtime.URL, logsvc.NewRollbarLogger(logger, conf))
		errAndDie(err)
		defer natsFeed.Close()
		feed = natsFeed
	} else {
		feed = realtime.NewInprocFeed()
	}

	// start CLI
	cli := commandLine{
		db:        db,
		profSvc:   profile.NewService(sqlxrepos.NewProfileRepository(db)),
		notifRepo: sqlxrepos.NewNotificationRepository(db),
		feed:      feed,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
