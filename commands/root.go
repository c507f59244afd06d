package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/data/persist"
	"github.com/jsuresh/ttracker/internal/util"
)

var (
	// Logging related
	debug bool

	// Store file path; TTRACKER_DB overrides the default, --db
	// overrides both.
	dbPath string

	timezone string

	rootCmd = &cobra.Command{
		Use:   "ttracker",
		Short: "Offline time tracker with on-demand Freshbooks sync",
		Long: `ttracker records work intervals against named tasks in a local store.

Nothing touches the network until you explicitly run 'ttracker sync',
which reconciles the local log with the Freshbooks billing ledger.

Examples:
  ttracker start deploys 7              # start the clock on task "deploys", project 7
  ttracker stop                         # stop whichever task is running
  ttracker start reviews 9 09:30        # backdated start; auto-stops the running task
  ttracker push ops 7 "2024-01-02 09:00" "2024-01-02 10:30"
  ttracker list                         # unbilled time per task
  ttracker sync                         # push everything to Freshbooks`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel := "info"
			if debug {
				logLevel = "debug"
			}
			logFile := expandPath(defaultLogFile)
			if err := ensureDir(filepath.Dir(logFile)); err != nil {
				return err
			}
			util.InitLogger(logLevel, logFile, debug)
			return util.InitializeTimeProvider(timezone)
		},
	}
)

const (
	defaultLogFile   = "~/.ttracker/logs/app.log"
	defaultStoreFile = "~/.ttracker/store.json"
	storePathEnvVar  = "TTRACKER_DB"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
		"Store file path (defaults to $TTRACKER_DB, then "+defaultStoreFile+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug mode")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "Local",
		"Timezone setting (e.g., Asia/Shanghai, UTC)")
}

func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// storePath resolves the store file location: flag, then environment,
// then the per-user default.
func storePath() string {
	if dbPath != "" {
		return expandPath(dbPath)
	}
	if env := os.Getenv(storePathEnvVar); env != "" {
		return expandPath(env)
	}
	return expandPath(defaultStoreFile)
}

// withStore runs one command's load-mutate-save cycle under the store
// lock. The store is saved only if fn succeeds, so a failed validation
// never persists a partial mutation.
func withStore(fn func(f *persist.File, s *store.Store) error) error {
	f := persist.NewFile(storePath(), util.GetTimeProvider().Now)
	if err := f.Lock(); err != nil {
		return err
	}
	defer f.Unlock()

	s, err := f.Load()
	if err != nil {
		return err
	}
	if err := fn(f, s); err != nil {
		return err
	}
	return f.Save(s)
}

// viewStore is the read-only variant: no lock, no save.
func viewStore(fn func(s *store.Store) error) error {
	f := persist.NewFile(storePath(), util.GetTimeProvider().Now)
	s, err := f.Load()
	if err != nil {
		return err
	}
	return fn(s)
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
