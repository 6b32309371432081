package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/session"
)

const minPasswordLen = 8

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
		Long:  "Create and list the admin accounts that can log in through POST /auth/login.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin user",
		Example: `  numberdesk admin create --username ops --password secret123
  numberdesk admin create --username ops   # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), username, password)
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

func runAdminCreate(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username must not be blank")
	}

	// Prompt for password if not provided
	if password == "" {
		var err error
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	if len(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := stderrLogger(cfg)

	st, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	authSvc, err := service.NewAuthService(st, session.NewMemoryStore(), cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	admin, err := authSvc.CreateAdmin(ctx, username, password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Created admin user %q (id=%d)\n", admin.Username, admin.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminList(cmd.Context(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg, stderrLogger(cfg))
	if err != nil {
		return err
	}
	defer st.Close()

	admins, err := st.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("list admins: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(admins)
	}

	if len(admins) == 0 {
		fmt.Println("No admin users yet. One is created on the first 'numberdesk serve'.")
		return nil
	}

	fmt.Printf("%-6s %-24s %-20s\n", "ID", "USERNAME", "CREATED")
	fmt.Printf("%-6s %-24s %-20s\n", "--", "--------", "-------")
	for _, a := range admins {
		fmt.Printf("%-6d %-24s %-20s\n", a.ID, a.Username, a.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}
