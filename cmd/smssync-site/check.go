package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"smssync-site/internal/check"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	var (
		target    string
		rateLimit float64
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every asset the page references is served",
		Long: "Without --url the configured served root is checked directly. " +
			"With --url a running server is fetched over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report *check.Report
			var err error

			if target != "" {
				report, err = check.Remote(cmd.Context(), target, check.RemoteOptions{
					RateLimit: rateLimit,
					Timeout:   timeout,
					Progress:  cmd.ErrOrStderr(),
				})
			} else {
				cfg, cerr := loadConfig(flags)
				if cerr != nil {
					return cerr
				}
				s, closeRoot, oerr := openSite(cfg)
				if oerr != nil {
					return oerr
				}
				defer closeRoot()
				report, err = check.Local(s)
			}
			if err != nil {
				return err
			}

			check.Print(cmd.OutOrStdout(), report)
			if !report.OK() {
				return errors.Errorf("%d assets failed", len(report.Failed()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "url", "", "Base URL of a running server")
	cmd.Flags().Float64Var(&rateLimit, "rate", 5, "Requests per second against --url")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-request timeout against --url")
	return cmd
}
