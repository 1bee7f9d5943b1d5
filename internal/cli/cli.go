// Package cli implements vault-cli, the administrative command line for the
// vault database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dtroode/vaultqa/database"
	"github.com/dtroode/vaultqa/internal/dbutil"
	"github.com/dtroode/vaultqa/internal/logger"
	"github.com/dtroode/vaultqa/internal/model"
	"github.com/dtroode/vaultqa/internal/vaultcrypto"
)

// Exit codes returned by Execute.
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitInternal   = 2
)

// ErrValidation marks errors caused by bad arguments rather than the database.
var ErrValidation = errors.New("invalid arguments")

// Backend bundles the collaborators database commands run against.
type Backend struct {
	Users   model.UserStore
	Records model.RecordStore
	Query   *dbutil.SafeQuery
	// ReadQuery runs statements in read-only transactions; the query
	// command uses it.
	ReadQuery *dbutil.SafeQuery
	Cipher    *vaultcrypto.Cipher
	// Storage receives uploaded exports. Nil disables --upload.
	Storage model.Storage
	Close   func() error
}

// Provisioner prepares the role, database and schema.
type Provisioner interface {
	Setup(ctx context.Context) (database.ProvisionResult, error)
}

// ProvisionerFunc adapts a function to Provisioner.
type ProvisionerFunc func(ctx context.Context) (database.ProvisionResult, error)

func (f ProvisionerFunc) Setup(ctx context.Context) (database.ProvisionResult, error) {
	return f(ctx)
}

// Options wires a CLI to its environment.
type Options struct {
	// Connect opens the backend on first use.
	Connect     func(ctx context.Context) (*Backend, error)
	Provisioner Provisioner
	Logger      *logger.Logger
	Version     string
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	opts    Options
	backend *Backend
}

// New creates a new CLI instance.
func New(opts Options) *CLI {
	c := &CLI{opts: opts}
	c.rootCmd = c.newRootCmd()
	return c
}

// Command returns the root command.
func (c *CLI) Command() *cobra.Command {
	return c.rootCmd
}

// Execute runs the CLI and maps the outcome to an exit code.
func (c *CLI) Execute(ctx context.Context) int {
	err := c.rootCmd.ExecuteContext(ctx)
	if cerr := c.closeBackend(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close connection: %w", cerr)
	}
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(c.rootCmd.ErrOrStderr(), "Error: %v\n", err)
	if errors.Is(err, ErrValidation) {
		return ExitValidation
	}
	return ExitInternal
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault-cli",
		Short: "Administrative tool for the vault database",
		Long: `vault-cli provisions the vault database, loads sample data and runs
maintenance operations against vault_users and vault_records.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       c.opts.Version,
	}

	cmd.AddCommand(c.newSetupCmd())
	cmd.AddCommand(c.newSeedCmd())
	cmd.AddCommand(c.newInspectCmd())
	cmd.AddCommand(c.newExportUsersCmd())
	cmd.AddCommand(c.newDeleteRecordsCmd())
	cmd.AddCommand(c.newStatsCmd())
	cmd.AddCommand(c.newQueryCmd())
	cmd.AddCommand(c.newInventoryCmd())

	return cmd
}

func (c *CLI) connect(ctx context.Context) (*Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	if c.opts.Connect == nil {
		return nil, errors.New("no database connection configured")
	}

	b, err := c.opts.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	c.backend = b
	return b, nil
}

func (c *CLI) closeBackend() error {
	if c.backend == nil || c.backend.Close == nil {
		return nil
	}
	err := c.backend.Close()
	c.backend = nil
	return err
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
