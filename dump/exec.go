package dump

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
)

// Exec implements Backend with the mysqldump and mysql client binaries.
// Credentials travel through MYSQL_PWD, never through argv.
type Exec struct {
	Host         string // defaults to 127.0.0.1
	Port         string // defaults to 3306
	DumpBinary   string // defaults to "mysqldump"
	ClientBinary string // defaults to "mysql"
	Logger       zerolog.Logger
}

var _ Backend = (*Exec)(nil)

func (e *Exec) host() string {
	if e.Host != "" {
		return e.Host
	}
	return "127.0.0.1"
}

func (e *Exec) port() string {
	if e.Port != "" {
		return e.Port
	}
	return "3306"
}

func (e *Exec) commonArgs(database, user string) []string {
	return []string{
		"--host", e.host(),
		"--port", e.port(),
		"--user", user,
		database,
	}
}

func (e *Exec) Export(ctx context.Context, database, user, password string, w io.Writer) error {
	binary := e.DumpBinary
	if binary == "" {
		binary = "mysqldump"
	}

	args := append([]string{"--single-transaction", "--quick"}, e.commonArgs(database, user)...)
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+password)
	cmd.Stdout = w

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.Logger.Debug().Str("database", database).Msg("running mysqldump")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *Exec) Import(ctx context.Context, database, user, password string, r io.Reader) error {
	binary := e.ClientBinary
	if binary == "" {
		binary = "mysql"
	}

	cmd := exec.CommandContext(ctx, binary, e.commonArgs(database, user)...)
	cmd.Env = append(os.Environ(), "MYSQL_PWD="+password)
	cmd.Stdin = r

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.Logger.Debug().Str("database", database).Msg("running mysql import")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysql import: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// Ping opens a short-lived connection to verify the database is reachable
// with the given credentials before a restore touches it.
func (e *Exec) Ping(ctx context.Context, database, user, password string) error {
	cfg := mysql.Config{
		User:                 user,
		Passwd:               password,
		Net:                  "tcp",
		Addr:                 e.host() + ":" + e.port(),
		DBName:               database,
		AllowNativePasswords: true,
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("open connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database %q: %w", database, err)
	}
	return nil
}
