package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"smssync-site/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

type rootFlags struct {
	configPath string
	root       string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "smssync-site",
		Short:         "Serve the SMSSync product page and its static assets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to config file (YAML or TOML)")
	cmd.PersistentFlags().StringVar(&flags.root, "root", "", "Serve this directory instead of the embedded site")

	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return cmd
}

// loadConfig loads the config file, applies flag overrides and configures
// logrus from it.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.root != "" {
		cfg.Server.Root = flags.root
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}

	configureLogging(cfg)
	return cfg, nil
}

func configureLogging(cfg *config.Config) {
	if cfg.Log.Format == "text" {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
}
