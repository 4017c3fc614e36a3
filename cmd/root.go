// Package cmd implements the command-line interface for the news
// aggregator.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nordnytt/aggregator/cmd/fetch"
	"github.com/nordnytt/aggregator/cmd/serve"
	cmdsources "github.com/nordnytt/aggregator/cmd/sources"
	"github.com/nordnytt/aggregator/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "aggregator",
		Short: "A news feed aggregator with near-duplicate detection",
		Long: `Aggregator ingests RSS and Atom feeds from a curated list of domains,
filters out mainstream and blocked sources, classifies language and topic,
drops near-duplicate stories, and stores the rest in PostgreSQL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("aggregator version %s\n", version)
		},
	})

	rootCmd.AddCommand(fetch.Command())
	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(cmdsources.Command())
}

// initConfig wires viper to the config file, environment variables and
// defaults. The config file is optional.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}
