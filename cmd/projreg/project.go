package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rpggio/projreg/internal/mcp"
)

func newProjectCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create, advance and inspect projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(opts),
		newProjectAdvanceCmd(opts),
		newProjectGetCmd(opts),
		newProjectListCmd(opts),
	)
	return cmd
}

func newProjectCreateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <proposal-uri>",
		Short: "Register a project in the upcoming status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.CreateProject(cmd.Context(), opts.principal(a.cfg), mcp.CreateProjectParams{ProposalURI: args[0]})
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
}

func newProjectAdvanceCmd(opts *rootOptions) *cobra.Command {
	var report string

	cmd := &cobra.Command{
		Use:   "advance <id> <status>",
		Short: "Move a project to ongoing, completed or cancelled",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.AdvanceStatus(cmd.Context(), opts.principal(a.cfg), mcp.AdvanceStatusParams{
					ID:        id,
					Status:    args[1],
					ReportURI: report,
				})
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "final report URI (required for completed and cancelled)")
	return cmd
}

func newProjectGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.GetProject(cmd.Context(), mcp.GetProjectParams{ID: id})
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
}

func newProjectListCmd(opts *rootOptions) *cobra.Command {
	var params mcp.ListProjectsParams

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects in id order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.ListProjects(cmd.Context(), params)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
	cmd.Flags().StringVar(&params.Status, "status", "", "only list projects in this status")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "maximum number of projects (0 for all)")
	cmd.Flags().IntVar(&params.Offset, "offset", 0, "number of projects to skip")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count projects per status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid project id %q", s)
	}
	return id, nil
}
