package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/data/persist"
	"github.com/jsuresh/ttracker/internal/remote"
	"github.com/jsuresh/ttracker/internal/syncer"
	"github.com/jsuresh/ttracker/internal/util"
)

var syncAll bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Update Freshbooks with all logged time",
	Long: `Update Freshbooks with all logged time. The only command that touches
the remote ledger.

The run is resumable: progress persists after every remote call, so if
it dies partway a rerun picks up where it left off without creating
duplicates. --all additionally re-submits every entry to repair manual
edits made on the Freshbooks side.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(f *persist.File, s *store.Store) error {
			if !s.HasCredentials() {
				return fmt.Errorf("no Freshbooks credentials configured, run 'ttracker init' first")
			}

			client := remote.NewClient(remote.Config{Username: s.Username, APIKey: s.APIKey})
			engine := syncer.New(s, f, client)
			engine.Progress = func(format string, args ...any) {
				fmt.Printf(format+"\n", args...)
			}

			if err := engine.Run(cmd.Context(), syncAll); err != nil {
				util.LogErrorf("sync aborted: %v", err)
				return fmt.Errorf("%w\nCompleted steps are saved; rerun 'ttracker sync' to resume", err)
			}
			fmt.Println("Sync complete.")
			return nil
		})
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncAll, "all", false,
		"Re-submit every entry, not just unsynced ones")
	rootCmd.AddCommand(syncCmd)
}
