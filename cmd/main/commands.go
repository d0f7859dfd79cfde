package main

import (
	"fmt"
	"github.com/spf13/cobra"
	"redditslacker/internal/pkg/app"
)

func newRootCmd() *cobra.Command {
	var opts app.Options

	serve := func(cmd *cobra.Command, _ []string) error {
		return app.Serve(cmd.Context(), opts)
	}

	root := &cobra.Command{
		Use:           "redditslacker",
		Short:         "Reddit moderation assistant for Slack",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve,
	}
	root.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "config.json", "path to the JSON config file")
	root.PersistentFlags().StringVar(&opts.EnvFile, "env", ".env", "optional .env file with credentials")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the Slack endpoints and the background pollers",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		&cobra.Command{
			Use:   "reset-tracks",
			Short: "Zero the removal and ban counters of every user",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				n, err := app.ResetTracks(cmd.Context(), opts)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "reset counters of %d users\n", n)
				return err
			},
		},
		&cobra.Command{
			Use:   "user <name>",
			Short: "Print what is stored about a Reddit user",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.PrintUser(cmd.Context(), opts, args[0], cmd.OutOrStdout())
			},
		},
	)

	return root
}
