package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/studyshelf/internal/auth"
	"github.com/mrlokans/studyshelf/internal/config"
	"github.com/mrlokans/studyshelf/internal/database"
	"github.com/mrlokans/studyshelf/internal/database/users"
	"github.com/mrlokans/studyshelf/internal/entities"
)

// CreateUserCommand creates an account directly in the database. It is the
// only way to create platform admins.
type CreateUserCommand struct {
	Name        string
	Email       string
	Password    string
	Institution string
	Admin       bool
	Database    config.Database
	BcryptCost  int

	Out io.Writer
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{
		Database:   cfg.Database,
		BcryptCost: cfg.Auth.BcryptCost,
		Out:        os.Stdout,
	}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)

	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address used to log in (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 8 characters (required)")
	fs.StringVar(&cmd.Institution, "institution", "", "Institution the user belongs to")
	fs.BoolVar(&cmd.Admin, "admin", false, "Grant the platform admin role")
	fs.StringVar(&cmd.Database.Path, "db", cmd.Database.Path, "Path to the SQLite database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> -email <email> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account. Use -admin to create a platform administrator.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case cmd.Name == "":
		return fmt.Errorf("required flag -name not provided")
	case cmd.Email == "":
		return fmt.Errorf("required flag -email not provided")
	case cmd.Password == "":
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	role := entities.UserRoleUser
	if cmd.Admin {
		role = entities.UserRoleAdmin
	}

	service := auth.NewService(users.NewRepository(db.DB), nil, config.Auth{BcryptCost: cmd.BcryptCost})
	user, err := service.Register(context.Background(), auth.RegisterInput{
		Name:        cmd.Name,
		Email:       cmd.Email,
		Password:    cmd.Password,
		Institution: cmd.Institution,
		Role:        role,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Out, "Created %s %q (id %d)\n", user.Role, user.Email, user.ID)
	return nil
}
