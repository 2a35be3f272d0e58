package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"buyloop/internal/dummy"
	"buyloop/internal/logging"
)

func newDummyCmd(a *app) *cobra.Command {
	cfg := dummy.ServerConfig{}

	dummyCmd := &cobra.Command{
		Use:   "dummy",
		Short: "Run a local fake trade endpoint",
		Long: `Serves grpc-web-text responses for dry runs:
  POST /trade     fills from the --succeed-after call on
  POST /sold-out  never fills
  POST /garbage   returns an undecodable body
  POST /flaky     drops a share of connections

Point a run at it with --endpoint http://localhost:8080/trade`,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString("log-level")
			log := logging.New(level, a.errOut)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return dummy.Start(ctx, cfg, log)
		},
	}

	dummyCmd.Flags().IntVarP(&cfg.Port, "port", "p", 8080, "Port to run dummy server on")
	dummyCmd.Flags().IntVar(&cfg.SucceedAfter, "succeed-after", 5, "Call number from which /trade reports Bought")
	dummyCmd.Flags().Float64Var(&cfg.FlakyRate, "flaky-rate", 0.3, "Share of /flaky calls that drop the connection")
	dummyCmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	return dummyCmd
}
