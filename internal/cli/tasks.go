// Task commands for the taskboard CLI: add, list, show, edit, done, reopen
// and delete.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/engine"
	"github.com/mesh-intelligence/taskboard/internal/render"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

const dateLayout = "2006-01-02"

// Confirmation messages shown after each mutation.
var (
	msgAdded     = message{render.SeverityDefault, "Task added", "Your new task has been created"}
	msgUpdated   = message{render.SeverityDefault, "Task updated", "Your task has been updated successfully"}
	msgCompleted = message{render.SeverityDefault, "Task completed", "Your task has been marked as completed"}
	msgReopened  = message{render.SeverityDefault, "Task reopened", "Your task has been reopened"}
	msgDeleted   = message{render.SeverityDestructive, "Task deleted", "Your task has been deleted"}
)

type message struct {
	severity render.Severity
	title    string
	detail   string
}

// taskFlags holds the editable fields shared by add and edit.
type taskFlags struct {
	title       string
	description string
	priority    string
	due         string
	tags        string
	clearDue    bool
}

func (f *taskFlags) register(cmd *cobra.Command, withClear bool) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "priority: low, medium or high")
	cmd.Flags().StringVar(&f.due, "due", "", "due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags")
	if withClear {
		cmd.Flags().BoolVar(&f.clearDue, "clear-due", false, "remove the due date")
	}
}

// parseDue accepts a calendar date in local time or an RFC 3339 timestamp.
func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, userErr(fmt.Errorf("invalid due date %q: use YYYY-MM-DD", s))
	}
	return &t, nil
}

func parsePriority(s string) (types.Priority, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	p, err := types.ParsePriority(s)
	if err != nil {
		return "", userErr(err)
	}
	return p, nil
}

// resolveID accepts a full ID or a unique prefix of one.
func resolveID(coll *engine.Collection, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", userErr(types.ErrInvalidID)
	}
	lower := strings.ToLower(arg)
	var matches []string
	for _, t := range coll.Tasks() {
		id := strings.ToLower(t.ID)
		if id == lower {
			return t.ID, nil
		}
		if strings.HasPrefix(id, lower) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", userErr(fmt.Errorf("task %q not found", arg))
	case 1:
		return matches[0], nil
	default:
		return "", userErr(fmt.Errorf("task id prefix %q is ambiguous (%d matches)", arg, len(matches)))
	}
}

// report flushes the workspace, then prints the task as JSON or the
// confirmation message. Nothing is printed when the flush fails.
func (a *app) report(cmd *cobra.Command, ws *workspace, t types.Task, msg message) error {
	if err := ws.close(); err != nil {
		return err
	}
	if a.jsonMode {
		return render.JSON(cmd.OutOrStdout(), t)
	}
	return printer(cmd).Message(msg.severity, msg.title, msg.detail)
}

func newAddCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) == 1 && f.title == "" {
				f.title = args[0]
			}
			in, err := f.input()
			if err != nil {
				return err
			}

			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			t, err := ws.coll.Add(cmd.Context(), in)
			if err != nil {
				return describe(err, "")
			}
			return a.report(cmd, ws, t, msgAdded)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (f *taskFlags) input() (types.TaskInput, error) {
	pr, err := parsePriority(f.priority)
	if err != nil {
		return types.TaskInput{}, err
	}
	due, err := parseDue(f.due)
	if err != nil {
		return types.TaskInput{}, err
	}
	return types.TaskInput{
		Title:       f.title,
		Description: f.description,
		Priority:    pr,
		DueDate:     due,
		Tags:        types.SplitTags(f.tags),
	}, nil
}

func newListCmd(a *app) *cobra.Command {
	var status, priority, sortMode, search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long: `List tasks after filtering, searching and sorting.

The search matches titles, descriptions and tags, ignoring case.

Example:
  taskboard list --status pending --sort dueDate
  taskboard list --priority high --search report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			st, err := types.ParseStatusFilter(status)
			if err != nil {
				return userErr(fmt.Errorf("invalid --status %q: use all, pending or completed", status))
			}
			pf, err := types.ParsePriorityFilter(priority)
			if err != nil {
				return userErr(fmt.Errorf("invalid --priority %q: use all, low, medium or high", priority))
			}
			sm, err := types.ParseSortMode(sortMode)
			if err != nil {
				return userErr(fmt.Errorf("invalid --sort %q: use newest, oldest, dueDate or priority", sortMode))
			}

			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			ctx := cmd.Context()
			if _, err := ws.coll.Dispatch(ctx, types.SetFilter{Patch: types.FilterPatch{Status: &st, Priority: &pf, Sort: &sm}}); err != nil {
				return err
			}
			visible, err := ws.coll.Dispatch(ctx, types.SetQuery{Query: search})
			if err != nil {
				return err
			}

			if a.jsonMode {
				return render.JSON(cmd.OutOrStdout(), visible)
			}
			return printer(cmd).TaskList(visible)
		},
	}
	cmd.Flags().StringVar(&status, "status", "all", "all, pending or completed")
	cmd.Flags().StringVar(&priority, "priority", "all", "all, low, medium or high")
	cmd.Flags().StringVar(&sortMode, "sort", "newest", "newest, oldest, dueDate or priority")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search text")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			id, err := resolveID(ws.coll, args[0])
			if err != nil {
				return err
			}
			t, err := ws.coll.Get(id)
			if err != nil {
				return describe(err, id)
			}
			if a.jsonMode {
				return render.JSON(cmd.OutOrStdout(), t)
			}
			return printer(cmd).Task(t)
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	var f taskFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's title, description, priority, due date or tags",
		Long: `Edit replaces the fields given as flags. Fields without a flag keep
their current values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			id, err := resolveID(ws.coll, args[0])
			if err != nil {
				return err
			}
			current, err := ws.coll.Get(id)
			if err != nil {
				return describe(err, id)
			}
			in, err := f.merge(cmd, current)
			if err != nil {
				return err
			}
			t, err := ws.coll.Edit(cmd.Context(), id, in)
			if err != nil {
				return describe(err, id)
			}
			return a.report(cmd, ws, t, msgUpdated)
		},
	}
	f.register(cmd, true)
	return cmd
}

// merge overlays the flags the user set onto the task's current fields.
func (f *taskFlags) merge(cmd *cobra.Command, t types.Task) (types.TaskInput, error) {
	in := types.TaskInput{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        t.Tags,
	}
	changed := cmd.Flags().Changed
	if changed("title") {
		in.Title = f.title
	}
	if changed("description") {
		in.Description = f.description
	}
	if changed("priority") {
		pr, err := parsePriority(f.priority)
		if err != nil {
			return types.TaskInput{}, err
		}
		in.Priority = pr
	}
	if changed("due") {
		due, err := parseDue(f.due)
		if err != nil {
			return types.TaskInput{}, err
		}
		in.DueDate = due
	}
	if f.clearDue {
		in.DueDate = nil
	}
	if changed("tags") {
		in.Tags = types.SplitTags(f.tags)
	}
	return in, nil
}

func newDoneCmd(a *app) *cobra.Command {
	return newToggleCmd(a, "done <id>", "Mark a task completed", true, msgCompleted)
}

func newReopenCmd(a *app) *cobra.Command {
	return newToggleCmd(a, "reopen <id>", "Mark a completed task open again", false, msgReopened)
}

func newToggleCmd(a *app, use, short string, completed bool, msg message) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			id, err := resolveID(ws.coll, args[0])
			if err != nil {
				return err
			}
			t, err := ws.coll.ToggleComplete(cmd.Context(), id, completed)
			if err != nil {
				return describe(err, id)
			}
			return a.report(cmd, ws, t, msg)
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ws, err := a.openWorkspace(cmd)
			if err != nil {
				return err
			}
			defer ws.closeInto(&err)

			id, err := resolveID(ws.coll, args[0])
			if err != nil {
				return err
			}
			t, err := ws.coll.Get(id)
			if err != nil {
				return describe(err, id)
			}

			if !yes {
				ok, err := confirm(cmd, fmt.Sprintf("Delete %q? This cannot be undone. [y/N] ", t.Title))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := ws.coll.Delete(cmd.Context(), id); err != nil {
				return describe(err, id)
			}
			if err := ws.close(); err != nil {
				return err
			}
			if a.jsonMode {
				return render.JSON(cmd.OutOrStdout(), map[string]string{"deleted": id})
			}
			return printer(cmd).Message(msgDeleted.severity, msgDeleted.title, msgDeleted.detail)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")
	return cmd
}

// confirm asks a yes/no question on stdin. EOF counts as no.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, sysErr(err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
