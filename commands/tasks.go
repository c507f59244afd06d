package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/data/persist"
	"github.com/jsuresh/ttracker/internal/util"
)

var (
	includeSynced bool
	stopNotes     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Display all active tasks, along with a short summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewStore(func(s *store.Store) error {
			renderTaskList(s, includeSynced)
			return nil
		})
	},
}

var startCmd = &cobra.Command{
	Use:   "start <task> <project-id> [<starttime>] [<notes>]",
	Short: "Start logging time to a given task/project",
	Long: `Start logging time to a given task/project.

The project may be a project id, a nickname, or "0" to reuse whatever
project the task's previous entry used. If another task is running it
is stopped at the same instant, so a task switch never overlaps.`,
	Args: cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := util.GetTimeProvider().ParseTimeArg(argOrEmpty(args, 2))
		if err != nil {
			return err
		}
		notes := argOrEmpty(args, 3)

		return withStore(func(f *persist.File, s *store.Store) error {
			res, err := s.Start(args[0], args[1], at, notes)
			if err != nil {
				return err
			}
			util.LogInfof("started task %s on project %s", res.TaskName, res.Entry.Project.ID)
			renderStartResult(res, s, s.Now())
			return nil
		})
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [<endtime>] [<notes>]",
	Short: "Stop logging time to whichever task is currently active",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := util.GetTimeProvider().ParseTimeArg(argOrEmpty(args, 0))
		if err != nil {
			return err
		}
		notes := argOrEmpty(args, 1)
		if notes == "" {
			notes = stopNotes
		}

		return withStore(func(f *persist.File, s *store.Store) error {
			res, err := s.Stop(at, notes)
			if err != nil {
				return err
			}
			util.LogInfof("stopped task %s after %d minutes", res.TaskName, res.Entry.Minutes(s.Now()))
			renderStopResult(res, s.Now())
			return nil
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <task>",
	Short: "Delete the given task",
	Long: `Delete the given task. All time logged remains until the next sync -
the task just disappears from this tool. This action can be undone in
Freshbooks.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(f *persist.File, s *store.Store) error {
			if err := s.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %q (remote copy removed on next sync)\n", args[0])
			return nil
		})
	},
}

var detailsCmd = &cobra.Command{
	Use:   "details <task>",
	Short: "List all time logged for a given task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return viewStore(func(s *store.Store) error {
			task, err := s.Details(args[0])
			if err != nil {
				return err
			}
			now := s.Now()
			fmt.Println(renderTaskSummary(task, now, 0, true))
			for _, e := range task.Entries {
				fmt.Println(renderEntry(e, now))
			}
			return nil
		})
	},
}

var popCmd = &cobra.Command{
	Use:   "pop <task>",
	Short: "Remove the last logged entry for a given task, and display it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(f *persist.File, s *store.Store) error {
			entry, err := s.Pop(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("popped: %s\n", renderEntry(entry, s.Now()))
			return nil
		})
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <task> <project-id> <starttime> <endtime> [<notes>]",
	Short: "Push an already-finished time entry for a given task",
	Long: `Push an already-finished time entry for a given task.

This is the backfill path for entries you forgot to record live: it
appends a closed interval directly and never touches the running clock.`,
	Args: cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		tp := util.GetTimeProvider()
		start, err := tp.ParseTimeArg(args[2])
		if err != nil {
			return err
		}
		end, err := tp.ParseTimeArg(args[3])
		if err != nil {
			return err
		}

		return withStore(func(f *persist.File, s *store.Store) error {
			res, err := s.Push(args[0], args[1], start, end, argOrEmpty(args, 4))
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", res.TaskName, renderEntry(res.Entry, s.Now()))
			return nil
		})
	},
}

func argOrEmpty(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}

func init() {
	listCmd.Flags().BoolVar(&includeSynced, "include-synced", false,
		"Include entries already synced to Freshbooks in the totals")
	stopCmd.Flags().StringVar(&stopNotes, "notes", "",
		"Notes to append to the stopped entry")

	rootCmd.AddCommand(listCmd, startCmd, stopCmd, deleteCmd, detailsCmd, popCmd, pushCmd)
}
