package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/dbrag/dbrag-server/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const dbragPrefix = "DBRAG"

var rootCmd = &cobra.Command{
	Use:   "dbrag",
	Short: "dbrag CLI",
	Long:  "Ask natural-language questions against a relational database: a language model writes the SQL, the server runs it and streams back the answer",

	// Runs before this command and any subcommands
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Set global viper options
		viper.SetEnvPrefix(dbragPrefix)
		viper.SetEnvKeyReplacer(strings.NewReplacer(
			`-`, `_`, // convert hyphens to underscores
			`.`, `_`, // convert dots to underscores
		))
		viper.AutomaticEnv()

		// Bind all flags from the current command and persistent parent flags
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}

		if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
			return err
		}

		// Load config and env files
		if err := config.LoadEnvAndConfigFiles(); err != nil {
			return err
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pflags := rootCmd.PersistentFlags()

	pflags.String("home-dir", "", "Path to the dbrag home directory")
	pflags.String("config-file", "", "Path to the config file")
	pflags.String("env-file", "", "Path to the env file")

	viper.BindPFlag("home_dir", pflags.Lookup("home-dir"))
	viper.BindPFlag("config_file", pflags.Lookup("config-file"))
	viper.BindPFlag("env_file", pflags.Lookup("env-file"))

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}
