// Command migrate applies or rolls back the schema migrations.
//
//	migrate up            apply all pending migrations
//	migrate down          roll back the last migration
//	migrate goto VERSION  migrate up or down to VERSION
//	migrate version       print the applied schema version
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/conduit-api/internal/config"
	"github.com/conduit-api/internal/database"
	"github.com/conduit-api/pkg/logger"
)

func main() {
	path := flag.String("path", "", "migrations directory (defaults to MIGRATIONS_PATH)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-path DIR] up | down | goto VERSION | version\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	migrationsPath := cfg.Database.MigrationsPath
	if *path != "" {
		migrationsPath = *path
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	migrator, err := db.Migrator(migrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load migrations")
	}

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "goto":
		var version uint64
		version, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err != nil {
			log.Fatal().Str("version", flag.Arg(1)).Msg("goto requires a numeric version")
		}
		err = migrator.Goto(uint(version))
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
