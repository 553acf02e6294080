// Package admincli implements passtreectl, the local administration tool.
// It talks to the database directly through the credential service, so user
// provisioning works without a running HTTP endpoint.
package admincli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/passtree/passtree/internal/server/config"
	"github.com/passtree/passtree/internal/server/models"
	"github.com/passtree/passtree/internal/server/repositories/repomanager"
	"github.com/passtree/passtree/internal/server/services"
)

const usage = `usage: passtreectl <command> [args]

commands:
  adduser <username>   create a user (prompts for a password)
  deluser <username>   delete a user and everything it owns
  migrate              apply pending schema migrations`

// credentialAPI is the slice of the credential service the tool needs.
type credentialAPI interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Delete(ctx context.Context, username string) error
}

type App struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials credentialAPI
	out         io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	groupService := services.NewGroupService(db, rm)
	credentialService := services.NewCredentialService(db, rm, groupService, cfg)

	return &App{
		db:          db,
		repomanager: rm,
		credentials: credentialService,
		out:         os.Stdout,
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// PositionalArgs strips flags (and their values) from args, leaving the
// command and its operands. The complement of flagx.FilterArgs: flags go to
// the config layer, positionals come here.
func PositionalArgs(args []string) []string {
	var out []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, arg)
	}
	return out
}

// Run dispatches one command. Unknown commands and missing arguments return
// an error carrying the usage text.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	switch args[0] {
	case "adduser":
		if len(args) != 2 {
			return errors.New(usage)
		}
		return a.addUser(ctx, args[1])
	case "deluser":
		if len(args) != 2 {
			return errors.New(usage)
		}
		return a.delUser(ctx, args[1])
	case "migrate":
		return a.migrate(ctx)
	default:
		return errors.New(usage)
	}
}

func (a *App) addUser(ctx context.Context, username string) error {
	password, err := a.promptPassword()
	if err != nil {
		return err
	}

	user, err := a.credentials.Register(ctx, username, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "created user %s (%s)\n", user.UserName, user.ID)
	return nil
}

func (a *App) delUser(ctx context.Context, username string) error {
	if err := a.credentials.Delete(ctx, username); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted user %s\n", username)
	return nil
}

func (a *App) migrate(ctx context.Context) error {
	if err := a.repomanager.RunMigrations(ctx, a.db); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}
