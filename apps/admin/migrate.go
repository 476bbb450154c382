package main

import (
	"github.com/trezcool/darasa/storage/database"
)

var migrateRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	return migrateRunFunc(cli.db.DB)
}
