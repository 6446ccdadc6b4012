package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/persistorai/backlog/client"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectListCmd())
	cmd.AddCommand(projectGetCmd())
	cmd.AddCommand(projectCreateCmd())
	cmd.AddCommand(projectDeleteCmd())
	cmd.AddCommand(projectAuditsCmd())
	return cmd
}

var projectHeaders = []string{"ID", "SLUG", "NAME", "PINNED"}

func projectRow(p *client.Project) []string {
	return []string{p.ID, p.Slug, p.Name, strconv.FormatBool(p.Pinned)}
}

func outputProject(cmd *cobra.Command, p *client.Project) error {
	return output(cmd.OutOrStdout(), p, p.ID, projectHeaders, [][]string{projectRow(p)})
}

func projectListCmd() *cobra.Command {
	var pinned bool
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := &client.ProjectListOptions{Limit: limit, Offset: offset}
			if cmd.Flags().Changed("pinned") {
				opts.Pinned = &pinned
			}
			projects, _, err := apiClient.Projects.List(cmd.Context(), opts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(projects))
			ids := make([]string, 0, len(projects))
			for i := range projects {
				rows = append(rows, projectRow(&projects[i]))
				ids = append(ids, projects[i].ID)
			}
			return output(cmd.OutOrStdout(), projects, strings.Join(ids, "\n"), projectHeaders, rows)
		},
	}
	cmd.Flags().BoolVar(&pinned, "pinned", false, "Only pinned (or, with =false, unpinned) projects")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func projectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a project by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Projects.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputProject(cmd, p)
		},
	}
}

func projectCreateCmd() *cobra.Command {
	var slug, description string
	var pinned bool
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Projects.Create(cmd.Context(), &client.ProjectInput{
				Name:        args[0],
				Slug:        slug,
				Description: description,
				Pinned:      pinned,
			})
			if err != nil {
				return err
			}
			return outputProject(cmd, p)
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "URL-safe project key (required)")
	cmd.Flags().StringVar(&description, "description", "", "Project description")
	cmd.Flags().BoolVar(&pinned, "pinned", false, "Pin the project")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and all of its backlogs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := apiClient.Projects.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return outputProject(cmd, p)
		},
	}
}

func projectAuditsCmd() *cobra.Command {
	var field string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "audits <id>",
		Short: "Show the field history of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, _, err := apiClient.Projects.Audits(cmd.Context(), args[0], &client.AuditListOptions{
				Field: field, Limit: limit, Offset: offset,
			})
			if err != nil {
				return err
			}
			return outputAudits(cmd, records)
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "Only changes of this field")
	cmd.Flags().IntVar(&limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Offset for pagination")
	return cmd
}

func outputAudits(cmd *cobra.Command, records []client.AuditRecord) error {
	rows := make([][]string, 0, len(records))
	ids := make([]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.FieldName,
			orDash(r.OldValue),
			orDash(r.NewValue),
		})
		ids = append(ids, r.ID)
	}
	return output(cmd.OutOrStdout(), records, strings.Join(ids, "\n"),
		[]string{"WHEN", "FIELD", "OLD", "NEW"}, rows)
}
