package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devbook/devbook/internal/config"
	"github.com/devbook/devbook/internal/entrypoint"
	"github.com/devbook/devbook/internal/logging"
)

// CreateAdminCommand bootstraps an administrator account. Registration over
// HTTP only ever creates students.
type CreateAdminCommand struct {
	Name     string
	Email    string
	Password string

	// readPassword prompts for the password when the flag is absent.
	readPassword func(out io.Writer, prompt string) (string, error)
	loadConfig   func() *config.Config
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{
		readPassword: promptPassword,
		loadConfig:   config.NewConfig,
	}
}

func (c *CreateAdminCommand) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: "Create an administrator account in the configured database.\n\n" +
			"The password is prompted for without echo when --password is not given.",
		Example: "  devbook create-admin --name \"Grace Hopper\" --email grace@example.com",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&c.Name, "name", "", "Display name of the administrator (required)")
	cmd.Flags().StringVar(&c.Email, "email", "", "Login email of the administrator (required)")
	cmd.Flags().StringVar(&c.Password, "password", "", "Password; prompted for when omitted")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (c *CreateAdminCommand) Run(ctx context.Context, out io.Writer) error {
	password := c.Password
	if password == "" {
		var err error
		password, err = c.readPassword(out, "Password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		confirm, err := c.readPassword(out, "Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}
	}

	cfg := c.loadConfig()
	log := logging.New(cfg.Log)

	// Tokens are not issued here, so a throwaway secret is fine.
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = "create-admin"
	}

	app, err := entrypoint.NewApp(cfg, log)
	if err != nil {
		return err
	}
	defer logging.Close(log, app, "database")

	user, err := app.Auth.CreateAdmin(ctx, c.Name, c.Email, password)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Created administrator %s <%s> (id %d)\n", user.Name, user.Email, user.ID)
	return nil
}

// promptPassword securely reads a password with masking.
func promptPassword(out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, pass --password")
	}
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return trimLineEnding(raw), nil
}

// trimLineEnding drops a trailing CR some terminals leave behind. Spaces are
// part of the password.
func trimLineEnding(raw []byte) string {
	return strings.TrimRight(string(raw), "\r\n")
}
