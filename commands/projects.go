package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jsuresh/ttracker/internal/core/store"
	"github.com/jsuresh/ttracker/internal/data/persist"
	"github.com/jsuresh/ttracker/internal/remote"
	"github.com/jsuresh/ttracker/internal/util"
)

var (
	fromFreshbooks bool
	deleteNickname bool
)

var initCmd = &cobra.Command{
	Use:   "init [<username> <apikey>]",
	Short: "Initialise ttracker on first use",
	Long: `Initialise ttracker. Stores your Freshbooks credentials and downloads
the project list. Run this once before anything else; credentials can
be changed later with 'ttracker config'.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(f *persist.File, s *store.Store) error {
			if s.HasCredentials() && len(s.Projects) > 0 {
				fmt.Println("Already initialised. Use 'ttracker config' to change credentials,")
				fmt.Println("or 'ttracker projects --from-freshbooks' to refresh the project list.")
				return nil
			}
			if !s.HasCredentials() {
				fmt.Println("Storing credentials for the Freshbooks API (can be changed with 'ttracker config')")
				if err := configureCredentials(s, args); err != nil {
					return err
				}
			}
			if len(s.Projects) == 0 {
				fmt.Println("Downloading project info from Freshbooks...")
				if err := refreshProjects(cmd.Context(), s); err != nil {
					return err
				}
			}
			if len(s.Projects) == 0 {
				fmt.Println("No projects in Freshbooks. Create some, or get added to an existing one, to start logging time.")
				return nil
			}
			renderProjects(s)
			return nil
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config [<username> <apikey>]",
	Short: "Configure your Freshbooks username and API key",
	Args:  cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(f *persist.File, s *store.Store) error {
			return configureCredentials(s, args)
		})
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List all projects you can log time to",
	Long: `List all projects you can log time to. Served from the local cache
unless --from-freshbooks is specified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !fromFreshbooks {
			return viewStore(func(s *store.Store) error {
				fmt.Println("From cache, use '--from-freshbooks' to get the latest projects")
				renderProjects(s)
				return nil
			})
		}
		return withStore(func(f *persist.File, s *store.Store) error {
			if err := refreshProjects(cmd.Context(), s); err != nil {
				return err
			}
			renderProjects(s)
			return nil
		})
	},
}

var nicknameCmd = &cobra.Command{
	Use:   "nickname [<name> <project-id>]",
	Short: "Manage short aliases for project ids",
	Long: `Manage short aliases for project ids. With no arguments, lists the
configured nicknames. With a name and project id, registers the alias;
with --delete, removes it.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case deleteNickname:
			if len(args) < 1 {
				return fmt.Errorf("nickname --delete needs the alias to remove")
			}
			return withStore(func(f *persist.File, s *store.Store) error {
				s.DeleteNickname(args[0])
				return nil
			})
		case len(args) == 2:
			return withStore(func(f *persist.File, s *store.Store) error {
				return s.SetNickname(args[0], args[1])
			})
		default:
			return viewStore(func(s *store.Store) error {
				aliases := make([]string, 0, len(s.Nicknames))
				for alias := range s.Nicknames {
					aliases = append(aliases, alias)
				}
				sort.Strings(aliases)
				width := util.MaxWidth(aliases)
				for _, alias := range aliases {
					id := s.Nicknames[alias]
					fmt.Printf("%s  %s (%s)\n", util.PadRight(alias, width), s.Projects[id], id)
				}
				return nil
			})
		}
	},
}

// configureCredentials fills in the username and API key from the
// command line, prompting for whatever is missing. The key prompt does
// not echo.
func configureCredentials(s *store.Store, args []string) error {
	username := argOrEmpty(args, 0)
	apikey := argOrEmpty(args, 1)

	var err error
	if username == "" {
		if username, err = promptLine("Freshbooks Username: "); err != nil {
			return err
		}
	}
	if apikey == "" {
		if apikey, err = promptSecret("Freshbooks API Key: "); err != nil {
			return err
		}
	}
	s.SetCredentials(username, apikey)
	return nil
}

// refreshProjects replaces the cached project list with the remote one.
func refreshProjects(ctx context.Context, s *store.Store) error {
	if !s.HasCredentials() {
		return fmt.Errorf("no Freshbooks credentials configured, run 'ttracker config' first")
	}
	client := remote.NewClient(remote.Config{Username: s.Username, APIKey: s.APIKey})
	projects, err := client.ListProjects(ctx)
	if err != nil {
		return err
	}

	cache := make(map[string]string, len(projects))
	for _, p := range projects {
		cache[p.ID] = p.Name
	}
	s.ReplaceProjects(cache)
	util.LogInfof("refreshed %d projects from Freshbooks", len(cache))
	return nil
}

func promptLine(msg string) (string, error) {
	fmt.Print(msg)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(msg string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return promptLine(msg)
	}
	fmt.Print(msg)
	secret, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(secret)), nil
}

func init() {
	projectsCmd.Flags().BoolVar(&fromFreshbooks, "from-freshbooks", false,
		"Refresh the project list from Freshbooks before listing")
	nicknameCmd.Flags().BoolVar(&deleteNickname, "delete", false,
		"Delete the given nickname")

	rootCmd.AddCommand(initCmd, configCmd, projectsCmd, nicknameCmd)
}
