package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/surveyor-app/surveyor/internal/db"
	"github.com/surveyor-app/surveyor/internal/services"
	"github.com/surveyor-app/surveyor/internal/utils"
)

// createUser implements `server create-user -email E -password P [-role R]`.
// Accounts can only be bootstrapped into a SQLite database.
func createUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", "admin", "user, admin or super_admin")
	dbPath := fs.String("db", utils.SafeEnv("SURVEYOR_DB_PATH", ""), "SQLite database path")
	migrations := fs.String("migrations", utils.SafeEnv("SURVEYOR_MIGRATIONS_DIR", ""), "migrations directory override")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		return errors.New("create-user: -db or SURVEYOR_DB_PATH is required")
	}

	conn, err := db.Open(*dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := db.RunMigrations(conn, *migrations); err != nil {
		return err
	}
	store, err := db.NewSQLiteStore(conn)
	if err != nil {
		return err
	}

	u, err := services.NewAuthService(store, nil).CreateUser(context.Background(), *email, *password, *role)
	if err != nil {
		return fmt.Errorf("create-user: %w", err)
	}
	fmt.Fprintf(os.Stdout, "created %s (%s) id=%s\n", u.Email, u.Role, u.ID)
	return nil
}
