package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/services"
)

func strategyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Inspect and promote strategy versions",
	}
	cmd.AddCommand(strategyListCmd(), strategyPromoteCmd(), strategyLogCmd())
	return cmd
}

func strategyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <topic-id>",
		Short: "List a topic's strategy versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			versions, err := services.NewStrategyService(st).List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(versions)
		},
	}
}

func strategyPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <topic-id> <version>",
		Short: "Promote a strategy version and archive the rest",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}

			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			svc := services.NewStrategyService(st)
			if err := svc.Promote(cmd.Context(), args[0], version); err != nil {
				return err
			}

			sv, err := svc.Get(cmd.Context(), args[0], version)
			if err != nil {
				return err
			}
			return printJSON(sv)
		},
	}
}

func strategyLogCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "log <topic-id>",
		Short: "Show a topic's evolution history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			entries, err := st.ListEvolutionEntries(cmd.Context(), args[0], limit, offset)
			if err != nil {
				return err
			}
			return printJSON(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")
	return cmd
}
