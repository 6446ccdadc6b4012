package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/backlog/client"
)

const dateLayout = "2006-01-02"

func newBacklogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Manage backlogs",
	}
	cmd.AddCommand(backlogListCmd())
	cmd.AddCommand(backlogGetCmd())
	cmd.AddCommand(backlogCreateCmd())
	cmd.AddCommand(backlogUpdateCmd())
	cmd.AddCommand(backlogDeleteCmd())
	cmd.AddCommand(backlogAuditsCmd())
	return cmd
}

var backlogHeaders = []string{"REF", "STATUS", "PRIORITY", "PROGRESS", "TITLE", "DUE", "ASSIGNEE"}

func backlogRow(b *client.Backlog) []string {
	return []string{b.RefID, b.Status, b.Priority, b.Progress, b.Title, b.DueDate.Format(dateLayout), b.AssigneeName}
}

func outputBacklog(cmd *cobra.Command, b *client.Backlog) error {
	return output(cmd.OutOrStdout(), b, b.ID, backlogHeaders, [][]string{backlogRow(b)})
}

// backlogFields holds the editable backlog flags shared by create and update.
type backlogFields struct {
	title, description, typ, progress, priority, status, category, assignee, project string
	sprint                                                                           int
	est                                                                              float64
	beg, end, due                                                                    string
}

func (f *backlogFields) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.title, "title", "", "Title")
	fl.StringVar(&f.description, "description", "", "Description")
	fl.StringVar(&f.typ, "type", "", "Type (default backlog)")
	fl.StringVar(&f.progress, "progress", "", "Progress marker")
	fl.StringVar(&f.priority, "priority", "", "Priority marker")
	fl.StringVar(&f.status, "status", "", "Status marker")
	fl.StringVar(&f.category, "category", "", "Category")
	fl.StringVar(&f.assignee, "assignee", "", "Assignee name")
	fl.StringVar(&f.project, "project", "", "Project slug")
	fl.IntVar(&f.sprint, "sprint", 0, "Sprint number")
	fl.Float64Var(&f.est, "est", 0, "Estimated days")
	fl.StringVar(&f.beg, "beg", "", "Begin date (YYYY-MM-DD)")
	fl.StringVar(&f.end, "end", "", "End date (YYYY-MM-DD)")
	fl.StringVar(&f.due, "due", "", "Due date (YYYY-MM-DD)")
}

// apply writes every flag the user set onto in.
func (f *backlogFields) apply(cmd *cobra.Command, in *client.BacklogInput) error {
	changed := cmd.Flags().Changed
	strs := []struct {
		flag string
		src  string
		dst  *string
	}{
		{"title", f.title, &in.Title},
		{"description", f.description, &in.Description},
		{"type", f.typ, &in.Type},
		{"progress", f.progress, &in.Progress},
		{"priority", f.priority, &in.Priority},
		{"status", f.status, &in.Status},
		{"category", f.category, &in.Category},
		{"assignee", f.assignee, &in.AssigneeName},
		{"project", f.project, &in.ProjectSlug},
	}
	for _, s := range strs {
		if changed(s.flag) {
			*s.dst = s.src
		}
	}

	if changed("sprint") {
		in.SprintNumber = f.sprint
	}
	if changed("est") {
		est := f.est
		in.EstDays = &est
	}

	dates := []struct {
		flag string
		src  string
		dst  **time.Time
	}{
		{"beg", f.beg, &in.BegDate},
		{"end", f.end, &in.EndDate},
		{"due", f.due, &in.DueDate},
	}
	for _, d := range dates {
		if !changed(d.flag) {
			continue
		}
		t, err := time.Parse(dateLayout, d.src)
		if err != nil {
			return fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dst = &t
	}

	return nil
}

// inputFrom converts a stored backlog into a full replacement body.
func inputFrom(b *client.Backlog) *client.BacklogInput {
	beg, end, due := b.BegDate, b.EndDate, b.DueDate
	return &client.BacklogInput{
		Title:        b.Title,
		Description:  b.Description,
		Type:         b.Type,
		Progress:     b.Progress,
		SprintNumber: b.SprintNumber,
		Priority:     b.Priority,
		Status:       b.Status,
		Category:     b.Category,
		EstDays:      b.EstDays,
		BegDate:      &beg,
		EndDate:      &end,
		DueDate:      &due,
		AssigneeName: b.AssigneeName,
		ProjectSlug:  b.ProjectSlug,
	}
}

func backlogListCmd() *cobra.Command {
	var opts client.BacklogListOptions
	var sprint int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List backlogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("sprint") {
				opts.Sprint = &sprint
			}
			backlogs, _, err := apiClient.Backlogs.List(cmd.Context(), &opts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(backlogs))
			ids := make([]string, 0, len(backlogs))
			for i := range backlogs {
				rows = append(rows, backlogRow(&backlogs[i]))
				ids = append(ids, backlogs[i].ID)
			}
			return output(cmd.OutOrStdout(), backlogs, strings.Join(ids, "\n"), backlogHeaders, rows)
		},
	}
	cmd.Flags().StringVar(&opts.Project, "project", "", "Filter by project slug")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&opts.Type, "type", "", "Filter by type")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "Filter by assignee")
	cmd.Flags().IntVar(&sprint, "sprint", 0, "Filter by sprint number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Max results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Offset for pagination")
	return cmd
}

func backlogGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|ref>",
		Short: "Get a backlog by ID or ref_id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := getBacklog(cmd, args[0])
			if err != nil {
				return err
			}
			return outputBacklog(cmd, b)
		},
	}
}

// getBacklog resolves a UUID-shaped key by id and anything else by ref_id.
func getBacklog(cmd *cobra.Command, key string) (*client.Backlog, error) {
	if looksLikeUUID(key) {
		return apiClient.Backlogs.Get(cmd.Context(), key)
	}
	return apiClient.Backlogs.GetByRef(cmd.Context(), key)
}

func looksLikeUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	for i, r := range s {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if _, err := strconv.ParseUint(string(r), 16, 8); err != nil {
				return false
			}
		}
	}
	return true
}

func backlogCreateCmd() *cobra.Command {
	var f backlogFields
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := &client.BacklogInput{Title: args[0]}
			if err := f.apply(cmd, in); err != nil {
				return err
			}
			b, err := apiClient.Backlogs.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return outputBacklog(cmd, b)
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func backlogUpdateCmd() *cobra.Command {
	var f backlogFields
	cmd := &cobra.Command{
		Use:   "update <id|ref>",
		Short: "Change the given fields of a backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := getBacklog(cmd, args[0])
			if err != nil {
				return err
			}
			in := inputFrom(cur)
			if err := f.apply(cmd, in); err != nil {
				return err
			}
			b, err := apiClient.Backlogs.Update(cmd.Context(), cur.ID, in)
			if err != nil {
				return err
			}
			return outputBacklog(cmd, b)
		},
	}
	f.register(cmd)
	return cmd
}

func backlogDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|ref>",
		Short: "Delete a backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := getBacklog(cmd, args[0])
			if err != nil {
				return err
			}
			b, err := apiClient.Backlogs.Delete(cmd.Context(), cur.ID)
			if err != nil {
				return err
			}
			return outputBacklog(cmd, b)
		},
	}
}

func backlogAuditsCmd() *cobra.Command {
	var field string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "audits <id|ref>",
		Short: "Show the field history of a backlog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !looksLikeUUID(id) {
				cur, err := getBacklog(cmd, id)
				if err != nil {
					return err
				}
				id = cur.ID
			}
			records, _, err := apiClient.Backlogs.Audits(cmd.Context(), id, &client.AuditListOptions{
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
