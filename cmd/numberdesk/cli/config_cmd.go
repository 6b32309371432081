package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/numberdesk/numberdesk/internal/config"
)

const configFileName = "numberdesk.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage numberdesk configuration",
		Long:  "Initialize a default configuration file or display the current effective configuration.",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

// ---------- config init ----------

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		path  string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default numberdesk.yaml configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeDefaultConfig(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Edit the file, then run 'numberdesk serve'.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing config file")
	cmd.Flags().StringVarP(&path, "output", "o", configFileName, "Path of the file to write")

	return cmd
}

const configHeader = `# numberdesk configuration
#
# Every key can be overridden with an environment variable named
# NUMBERDESK_<SECTION>_<KEY>, e.g. NUMBERDESK_SERVER_PORT=8080.
# DB_PATH, PORT and DEBUG are accepted as short forms.

`

// writeDefaultConfig writes the built-in defaults as YAML to path.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	body, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(configHeader), body...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ---------- config show ----------

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if f := viper.ConfigFileUsed(); f != "" {
				fmt.Fprintf(out, "# Config file: %s\n", f)
			} else {
				fmt.Fprintln(out, "# Config file: (none found, using defaults and environment)")
			}
			return showConfig(out, redact(cfg))
		},
	}

	return cmd
}

func showConfig(w io.Writer, cfg config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// redact masks secrets before display.
func redact(cfg config.Config) config.Config {
	const mask = "********"
	if cfg.Auth.JWTSecret != "" {
		cfg.Auth.JWTSecret = mask
	}
	if cfg.Auth.Admin.Password != "" {
		cfg.Auth.Admin.Password = mask
	}
	if cfg.Session.RedisPassword != "" {
		cfg.Session.RedisPassword = mask
	}
	return cfg
}
