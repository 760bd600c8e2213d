package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/abduss/taskhub/internal/attachment"
	"github.com/abduss/taskhub/internal/storage"
)

func newMigrateCmd(open backendFactory, jsonOutput *bool) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				migrations, err := storage.Migrations()
				if err != nil {
					return err
				}
				versions := make([]string, 0, len(migrations))
				for _, m := range migrations {
					versions = append(versions, m.Version)
				}
				if *jsonOutput {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"available": versions})
				}
				for _, v := range versions {
					if err := writePlain(cmd.OutOrStdout(), "%s\n", v); err != nil {
						return err
					}
				}
				return nil
			}

			b, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			applied, err := b.migrate(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"applied": applied})
			}
			if len(applied) == 0 {
				return writePlain(cmd.OutOrStdout(), "No pending migrations.\n")
			}
			for _, v := range applied {
				if err := writePlain(cmd.OutOrStdout(), "applied %s\n", v); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list embedded migrations without applying them")
	return cmd
}

func newListCmd(open backendFactory, jsonOutput *bool) *cobra.Command {
	var page, limit int
	var include string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List attachments, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inc, err := attachment.ParseInclude(include)
			if err != nil {
				return err
			}

			b, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			result, err := b.attachments.FindAll(cmd.Context(), page, limit, inc)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeAttachmentPage(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (0 uses the configured default)")
	cmd.Flags().StringVar(&include, "include", "none", "relations to load: creator,task,project, all or none")
	return cmd
}

func newShowCmd(open backendFactory, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "show <attachment-id>",
		Short: "Show one attachment with its owners",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			b, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			a, err := b.attachments.FindByID(cmd.Context(), id, attachment.IncludeAll)
			if err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), a)
			}
			return writeAttachmentDetail(cmd.OutOrStdout(), a)
		},
	}
}

func newDeleteCmd(open backendFactory, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <attachment-id>",
		Short: "Delete an attachment's content and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			b, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			if err := b.attachments.Delete(cmd.Context(), id); err != nil {
				return err
			}
			if *jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
			}
			return writePlain(cmd.OutOrStdout(), "deleted %s\n", id)
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid attachment id %q", raw)
	}
	return id, nil
}
