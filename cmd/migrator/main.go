// Migrator applies the kv_storage schema to the Postgres cart storage.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/pflag"
)

const (
	dsnFlag           = "dsn"
	migrationPathFlag = "migrations-path"
	downFlag          = "down"
)

type flags struct {
	dsn            string
	migrationsPath string
	down           bool
}

func main() {
	f := parseFlags()
	validateFlags(f)
	runMigrations(f)
}

type migrationLogger struct {
	logger *slog.Logger
}

func (ml migrationLogger) Printf(format string, v ...any) {
	ml.logger.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (ml migrationLogger) Verbose() bool {
	return true
}

func parseFlags() flags {
	dsn := pflag.StringP(dsnFlag, "d", "", "postgres DSN of the cart storage")
	migrationsPath := pflag.StringP(migrationPathFlag, "m", "migrations", "")
	down := pflag.Bool(downFlag, false, "roll back all migrations")
	pflag.Parse()
	return flags{*dsn, *migrationsPath, *down}
}

func validateFlags(f flags) {
	var errs []error

	if f.dsn == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", dsnFlag))
	}

	if f.migrationsPath == "" {
		errs = append(errs, fmt.Errorf("--%s flag: required", migrationPathFlag))
	}

	if len(errs) != 0 {
		slog.Error("too few args", "err", errors.Join(errs...))
		fallDown()
	}
}

// databaseURL switches a postgres DSN to the pgx5 migrate driver.
func databaseURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return dsn
}

func runMigrations(f flags) {
	m, err := migrate.New(
		"file://"+f.migrationsPath,
		databaseURL(f.dsn),
	)
	if err != nil {
		slog.Error("failed to init migrations", "err", err)
		fallDown()
	}
	m.Log = migrationLogger{slog.Default()}

	migrateFn, action := m.Up, "applied"
	if f.down {
		migrateFn, action = m.Down, "rolled back"
	}

	if err := migrateFn(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.Log.Printf("no migrations to apply")
			return
		}
		slog.Error("failed to migrate", "err", err)
		fallDown()
	}
	m.Log.Printf("migrations %s", action)
}

func fallDown() {
	os.Exit(2)
}
