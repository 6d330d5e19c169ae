package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/taskboard/taskboard/internal/board"
	"github.com/taskboard/taskboard/internal/client"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/session"
)

func (c *cli) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <api-key>",
		Short: "Store the API key after checking it with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := client.New(c.v.GetString("api_url"), client.StaticKey(args[0]), client.WithLogger(c.logger))
			if err != nil {
				return err
			}
			if _, err := cl.Statistics(cmd.Context()); err != nil {
				if client.IsAuthFailure(err) {
					return fmt.Errorf("invalid API key")
				}
				fmt.Fprintf(c.errOut, "Warning: could not verify the API key (%s)\n", client.KindOf(err))
			}
			if err := c.sess.Login(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged in.")
			return nil
		},
	}
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.sess.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "Logged out.")
			return nil
		},
	}
}

func (c *cli) boardCmd() *cobra.Command {
	var search, priority string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show the board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pf, err := board.ParsePriorityFilter(strings.ToUpper(priority))
			if err != nil {
				return err
			}
			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			if err := coord.Refresh(cmd.Context()); err != nil {
				return errReported
			}
			visible := board.Filter(coord.Cache().Tasks(), search, pf)
			render(c.out, board.GroupByStatus(visible), c.sess.Theme())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only show tasks whose title contains this text")
	cmd.Flags().StringVar(&priority, "priority", "ALL", "only show tasks with this priority (ALL, LOW, MEDIUM, HIGH)")
	return cmd
}

// taskFlags are the editable fields shared by add and edit.
type taskFlags struct {
	title       string
	description string
	status      string
	priority    string
	due         string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "task title")
	cmd.Flags().StringVar(&f.description, "description", "", "task description")
	cmd.Flags().StringVar(&f.status, "status", "", "BACKLOG, IN_PROGRESS or DONE")
	cmd.Flags().StringVar(&f.priority, "priority", "", "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD)")
}

func (c *cli) addCmd() *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			draft := domain.TaskDraft{Title: f.title}
			if cmd.Flags().Changed("description") {
				draft.Description = &f.description
			}
			if f.status != "" {
				st, err := parseStatus(f.status)
				if err != nil {
					return err
				}
				draft.Status = st
			}
			if f.priority != "" {
				p, err := parsePriority(f.priority)
				if err != nil {
					return err
				}
				draft.Priority = p
			}
			if f.due != "" {
				d, err := domain.ParseDate(f.due)
				if err != nil {
					return err
				}
				draft.DueDate = &d
			}

			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			return result(coord.Create(cmd.Context(), draft))
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (c *cli) quickAddCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "quick-add <status> <title>...",
		Short: "Add a task straight into a column",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatus(args[0])
			if err != nil {
				return err
			}
			p, err := parsePriority(priority)
			if err != nil {
				return err
			}
			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			return result(coord.QuickAdd(cmd.Context(), st, strings.Join(args[1:], " "), p))
		},
	}
	cmd.Flags().StringVar(&priority, "priority", string(domain.DefaultPriority), "LOW, MEDIUM or HIGH")
	return cmd
}

func (c *cli) editCmd() *cobra.Command {
	var (
		f                taskFlags
		clearDescription bool
		clearDue         bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changed := cmd.Flags().Changed

			var patch domain.TaskPatch
			if changed("title") {
				patch.Title = &f.title
			}
			switch {
			case clearDescription:
				patch.Description = domain.Null[string]()
			case changed("description"):
				patch.Description = domain.Some(f.description)
			}
			if changed("status") {
				st, err := parseStatus(f.status)
				if err != nil {
					return err
				}
				patch.Status = &st
			}
			if changed("priority") {
				p, err := parsePriority(f.priority)
				if err != nil {
					return err
				}
				patch.Priority = &p
			}
			switch {
			case clearDue:
				patch.DueDate = domain.Null[domain.Date]()
			case changed("due"):
				d, err := domain.ParseDate(f.due)
				if err != nil {
					return err
				}
				patch.DueDate = domain.Some(d)
			}
			if patch.IsEmpty() {
				return fmt.Errorf("nothing to change: pass at least one field flag")
			}

			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			return result(coord.Update(cmd.Context(), id, patch))
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "remove the description")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func (c *cli) moveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := parseStatus(args[1])
			if err != nil {
				return err
			}
			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			if err := coord.Refresh(cmd.Context()); err != nil {
				return errReported
			}
			return result(coord.QuickStatusChange(cmd.Context(), id, st))
		},
	}
}

func (c *cli) dragCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drag <id> <from-status:index> <to-status:index>",
		Short: "Move a task between board positions",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			from, err := parsePosition(args[1])
			if err != nil {
				return err
			}
			to, err := parsePosition(args[2])
			if err != nil {
				return err
			}
			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			if err := coord.Refresh(cmd.Context()); err != nil {
				return errReported
			}
			outcome := coord.DragMove(cmd.Context(), id, from, to)
			if outcome == board.Noop {
				fmt.Fprintln(c.out, "Task dropped where it was; nothing changed.")
				return nil
			}
			if outcome == board.Applied {
				render(c.out, board.GroupByStatus(coord.Cache().Tasks()), c.sess.Theme())
			}
			return result(outcome)
		},
	}
}

func (c *cli) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			coord, err := c.coordinator()
			if err != nil {
				return err
			}
			return result(coord.Delete(cmd.Context(), id))
		},
	}
}

func (c *cli) bulkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-status <status> <id>...",
		Short: "Set the status of several tasks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := parseStatus(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			cl, err := c.apiClient()
			if err != nil {
				return err
			}
			res, err := cl.BulkUpdateStatus(cmd.Context(), ids, st)
			if err != nil {
				return c.reportFailure(board.ActionUpdate, err)
			}
			fmt.Fprintf(c.out, "Updated %d tasks to %s.\n", res.UpdatedCount, st.Label())
			return nil
		},
	}
}

func (c *cli) bulkPriorityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-priority <priority> <id>...",
		Short: "Set the priority of several tasks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePriority(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			cl, err := c.apiClient()
			if err != nil {
				return err
			}
			res, err := cl.BulkUpdatePriority(cmd.Context(), ids, p)
			if err != nil {
				return c.reportFailure(board.ActionUpdate, err)
			}
			fmt.Fprintf(c.out, "Updated %d tasks to %s priority.\n", res.UpdatedCount, p)
			return nil
		},
	}
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := c.apiClient()
			if err != nil {
				return err
			}
			stats, err := cl.Statistics(cmd.Context())
			if err != nil {
				return c.reportFailure(board.ActionLoad, err)
			}
			renderStats(c.out, stats)
			return nil
		},
	}
}

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Show, set or toggle the board theme",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			next := c.sess.Theme().Toggle()
			if len(args) == 1 {
				t, err := session.ParseTheme(args[0])
				if err != nil {
					return err
				}
				next = t
			}
			if err := c.sess.SetTheme(next); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "Theme: %s\n", next)
			return nil
		},
	}
}

// reportFailure prints a client failure the way the coordinator would and
// clears the session on auth failures.
func (c *cli) reportFailure(action board.Action, err error) error {
	fmt.Fprintf(c.errOut, "Error: %s\n", board.FailureMessage(action, err))
	if client.IsAuthFailure(err) {
		c.logout()
	}
	return errReported
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseStatus accepts status names in any case, with - for _.
func parseStatus(s string) (domain.Status, error) {
	return domain.ParseStatus(strings.ToUpper(strings.ReplaceAll(s, "-", "_")))
}

func parsePriority(s string) (domain.Priority, error) {
	return domain.ParsePriority(strings.ToUpper(s))
}

// parsePosition parses STATUS:INDEX.
func parsePosition(s string) (board.Position, error) {
	name, idx, ok := strings.Cut(s, ":")
	if !ok {
		return board.Position{}, fmt.Errorf("invalid position %q: want STATUS:INDEX", s)
	}
	st, err := parseStatus(name)
	if err != nil {
		return board.Position{}, err
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 0 {
		return board.Position{}, fmt.Errorf("invalid position %q: index must be a non-negative number", s)
	}
	return board.Position{Status: st, Index: index}, nil
}
