// Package cli provides command line administration commands: user
// provisioning and catalog seeding.
package cli

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/config"
	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/entities"
)

type CreateUserCommand struct {
	Username     string
	Email        string
	Password     string
	Role         string
	DatabasePath string
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username of the new account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email of the new account (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password of the new account (required)")
	fs.StringVar(&cmd.Role, "role", string(entities.UserRoleReader), "Role: reader or librarian")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the database file (defaults to DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account. Librarian accounts can only be provisioned here.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -username anna -email anna@example.com -password <pw> -role librarian\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("username, email and password are required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	cfg := config.NewConfig()
	dbPath := cmd.DatabasePath
	if dbPath == "" {
		dbPath = cfg.Database.Path
	}

	db, err := database.NewDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	service := auth.NewService(db.DB, cfg.Auth)
	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("Created %s '%s' (id %d)\n", user.Role, user.Username, user.ID)
	return nil
}
