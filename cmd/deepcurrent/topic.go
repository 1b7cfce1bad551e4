package main

import (
	"github.com/spf13/cobra"

	"github.com/gadicohen93/deepcurrent/services"
)

func topicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage research topics",
	}
	cmd.AddCommand(topicCreateCmd(), topicListCmd(), topicShowCmd())
	return cmd
}

func topicCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a topic with a default strategy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			topic, err := services.NewTopicService(st).Create(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			return printJSON(topic)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "topic description")
	return cmd
}

func topicListCmd() *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			topics, err := services.NewTopicService(st).List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(topics)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum topics to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "topics to skip")
	return cmd
}

func topicShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <topic-id>",
		Short: "Show a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			topic, err := services.NewTopicService(st).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(topic)
		},
	}
}
