package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"bullet-ai/domain/models"
)

var (
	addDue      string
	addPriority string
	addTags     []string
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "Show today, future and migration lists",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			printViews(cmd.OutOrStdout(), s.replica.Tasks(), s.now())
			return nil
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task (without --due it lands in migration)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		priority := models.Priority(strings.ToLower(addPriority))
		if !priority.IsValid() {
			return fmt.Errorf("invalid priority %q: use low, medium or high", addPriority)
		}

		return withSession(cmd, func(s *session) error {
			draft := models.Task{
				Title:    strings.Join(args, " "),
				Priority: priority,
				Tags:     addTags,
			}
			if addDue != "" {
				due, err := parseDay(addDue, s.now())
				if err != nil {
					return err
				}
				draft.DueDate = &due
			}
			if _, err := s.replica.Create(draft); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %q\n", draft.Title)
			return nil
		})
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Toggle a task's completion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd, args[0], func(s *session, t models.Task) error {
			if err := s.replica.Toggle(t.ID); err != nil {
				return err
			}
			state := "done"
			if t.IsCompleted {
				state = "open"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s\n", t.Title, state)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <id>",
	Short: "Clear a task's due date (move it to migration)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd, args[0], func(s *session, t models.Task) error {
			if err := s.replica.Migrate(t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s moved to migration\n", t.Title)
			return nil
		})
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <id> <today|tomorrow|YYYY-MM-DD>",
	Short: "Set a task's due date",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd, args[0], func(s *session, t models.Task) error {
			due, err := parseDay(args[1], s.now())
			if err != nil {
				return err
			}
			if err := s.replica.Schedule(t.ID, due); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s due %s\n", t.Title, due.Format("2006-01-02"))
			return nil
		})
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(cmd, args[0], func(s *session, t models.Task) error {
			if err := s.replica.Delete(t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", t.Title)
			return nil
		})
	},
}

func init() {
	addCmd.Flags().StringVar(&addDue, "due", "", "Due day: today, tomorrow or YYYY-MM-DD")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", string(models.PriorityMedium), "low, medium or high")
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Tag (repeatable)")
}

// withSession เปิด replica, รัน fn แล้ว flush; write ที่ล้มเหลวถูก rollback และคืนเป็น error
func withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		_ = s.close()
		return err
	}
	if err := s.close(); err != nil {
		return fmt.Errorf("change was rolled back: %w", err)
	}
	return nil
}

func withTask(cmd *cobra.Command, ref string, fn func(s *session, t models.Task) error) error {
	return withSession(cmd, func(s *session) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		return fn(s, t)
	})
}
