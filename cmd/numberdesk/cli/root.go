package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/numberdesk/numberdesk/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve and the API docs
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numberdesk",
		Short: "Register users and phone numbers over a small JSON API",
		Long: `numberdesk: a small HTTP service that registers users and phone numbers
into a single SQLite file.

It validates contact details, keeps users and standalone phone numbers,
checks admin credentials, and serves OpenAPI docs plus an MCP server for
AI agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./numberdesk.yaml)")
	cmd.PersistentFlags().Bool("dev", false, "Enable development mode (debug logging)")
	viper.BindPFlag("dev", cmd.PersistentFlags().Lookup("dev"))

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newDBCmd())

	return cmd
}

// initConfig layers configuration sources: built-in defaults, then the
// optional numberdesk.yaml, then .env, then the process environment.
func initConfig() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("numberdesk")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.numberdesk")
	}
	viper.ReadInConfig() // Ignore error - config file is optional
}

// loadConfig decodes and validates the effective configuration.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}
