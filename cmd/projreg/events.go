package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpggio/projreg/internal/archive"
	"github.com/rpggio/projreg/internal/config"
	"github.com/rpggio/projreg/internal/mcp"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read and archive the notification log",
	}
	cmd.AddCommand(newEventsListCmd(opts), newEventsExportCmd(opts))
	return cmd
}

func newEventsListCmd(opts *rootOptions) *cobra.Command {
	var (
		params    mcp.ListEventsParams
		projectID int64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events after a sequence cursor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("project") {
				if projectID < 0 {
					return fmt.Errorf("invalid project id %d", projectID)
				}
				id := uint64(projectID)
				params.ProjectID = &id
			}
			return opts.withApp(cmd.Context(), func(a *app) error {
				resp, err := a.handler.ListEvents(cmd.Context(), params)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, resp)
			})
		},
	}
	cmd.Flags().Int64Var(&projectID, "project", 0, "only list events for this project")
	cmd.Flags().StringVar(&params.Kind, "kind", "", "ProjectCreated or ProjectStatusChanged")
	cmd.Flags().Int64Var(&params.AfterSeq, "after", 0, "list events with seq above this cursor")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "maximum number of events (default 100)")
	return cmd
}

func newEventsExportCmd(opts *rootOptions) *cobra.Command {
	var (
		afterSeq int64
		limit    int
		batch    int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy events to the configured archive as JSON Lines batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withApp(cmd.Context(), func(a *app) error {
				sink, err := newSink(cmd.Context(), a.cfg.Archive)
				if err != nil {
					return err
				}
				exporter := archive.NewExporter(a.events, sink, a.logger)
				exporter.Prefix = a.cfg.Archive.Prefix
				if batch > 0 {
					exporter.BatchSize = batch
				}
				res, err := exporter.Export(cmd.Context(), afterSeq, limit)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), opts.output, res)
			})
		},
	}
	cmd.Flags().Int64Var(&afterSeq, "after", 0, "export events with seq above this cursor")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (0 for all)")
	cmd.Flags().IntVar(&batch, "batch", 0, "events per archive object")
	return cmd
}

func newSink(ctx context.Context, cfg config.ArchiveConfig) (archive.Sink, error) {
	switch cfg.Driver {
	case "s3":
		return archive.NewS3Sink(ctx, archive.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			PathStyle: cfg.PathStyle,
		})
	default:
		return archive.NewFSSink(cfg.Dir)
	}
}
