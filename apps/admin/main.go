package main

import (
	"log"
	"os"

	"github.com/AhenkERP/studentgradesys/core"
	"github.com/AhenkERP/studentgradesys/storage/database"
	sqlxrepos "github.com/AhenkERP/studentgradesys/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	sdb, err := database.Open(conf)
	errAndDie(err)
	defer sdb.Close()
	errAndDie(sdb.Ping())

	// start CLI
	cli := commandLine{
		sdb:         sdb,
		db:          core.NewDB(sdb),
		usrRepo:     sqlxrepos.NewUserRepository(sdb),
		profileRepo: sqlxrepos.NewProfileRepository(sdb),
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
