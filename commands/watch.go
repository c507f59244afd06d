package commands

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live task summary, re-rendered whenever the store changes",
	Long: `Live task summary, re-rendered whenever the store changes.

Read-only: run it in a spare terminal while starting and stopping tasks
elsewhere. Exit with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := storePath()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		// Saves are atomic renames into the directory, so watch the
		// directory and filter on the store filename.
		dir := filepath.Dir(path)
		if err := ensureDir(dir); err != nil {
			return err
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}

		if err := renderWatchFrame(); err != nil {
			return err
		}

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				util.LogDebugf("store changed (%s), re-rendering", event.Op)
				if err := renderWatchFrame(); err != nil {
					return err
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				util.LogErrorf("watch error: %v", err)
			case <-interrupt:
				return nil
			case <-cmd.Context().Done():
				return nil
			}
		}
	},
}

func renderWatchFrame() error {
	// ANSI clear screen + home, same trick the usual terminal
	// dashboards use.
	fmt.Print("\033[2J\033[H")
	return viewStore(func(s *store.Store) error {
		fmt.Printf("ttracker — %s\n\n", s.Now().Format("2006-01-02 15:04"))
		renderTaskList(s, false)
		return nil
	})
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
