package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/health", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoundTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "round-types",
		Short: "List the available round types",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Envelope[[]RoundType]

			if err := client.Get("/api/round-types", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result.Data)
			return nil
		},
	}
}
