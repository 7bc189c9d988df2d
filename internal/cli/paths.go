package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modslayer/internal/catalog"
	"github.com/danieljhkim/modslayer/internal/engine"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

var recentClear bool

var gameCmd = &cobra.Command{
	Use:   "game [path]",
	Short: "Show or set the game install path",
	Long: `Without an argument, print the configured game path.
With a path, make it the game path. It may be the game folder or its executable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showOrSetPath(args, "Game path", (*engine.Engine).GamePath, (*engine.Engine).SetGamePath)
	},
}

var modsFolderCmd = &cobra.Command{
	Use:   "mods-folder [path]",
	Short: "Show or set the folder mods are installed into",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showOrSetPath(args, "Mods folder", (*engine.Engine).ModsFolder, (*engine.Engine).SetModsFolder)
	},
}

func showOrSetPath(args []string, label string, get func(*engine.Engine) string, set func(*engine.Engine, string) error) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	if len(args) == 1 {
		logger.Debug("setting path", "label", label, "path", args[0])
		if err := set(eng, args[0]); err != nil {
			return err
		}
	}

	value := get(eng)
	if jsonOutput {
		return outputJSON(map[string]string{"path": value})
	}
	if value == "" {
		PrintEmptyState(label + " is not set")
		return nil
	}
	if len(args) == 1 {
		PrintSuccess(fmt.Sprintf("%s set to %s", label, value))
		return nil
	}
	PrintInfo(value)
	return nil
}

var recentCmd = &cobra.Command{
	Use:       "recent [game|mods|files]",
	Short:     "Show or clear recently used paths",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"game", "mods", "files"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds, err := kindsFromArgs(args)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		if recentClear {
			for _, k := range kinds {
				logger.Debug("clearing recent paths", "kind", k)
				if err := eng.ClearRecent(k); err != nil {
					return err
				}
			}
			if !jsonOutput {
				PrintSuccess("Cleared recent paths")
				return nil
			}
		}

		return printPathLists(kinds, eng.Recent, "No recent %s paths")
	},
}

var favoriteCmd = &cobra.Command{
	Use:     "favorite",
	Aliases: []string{"fav"},
	Short:   "Manage favorite game and mods paths",
}

var favoriteAddCmd = &cobra.Command{
	Use:       "add game|mods <path>",
	Short:     "Add a favorite path",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"game", "mods"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := catalog.ParseKind(args[0])
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		logger.Debug("adding favorite", "kind", kind, "path", args[1])
		if err := eng.AddFavorite(kind, args[1]); err != nil {
			return err
		}
		if jsonOutput {
			return printPathLists([]catalog.Kind{kind}, eng.Favorites, "")
		}
		PrintSuccess(fmt.Sprintf("Added %s favorite", kind))
		return nil
	},
}

var favoriteRmCmd = &cobra.Command{
	Use:   "rm game|mods <number>",
	Short: "Remove a favorite by its number in 'favorite ls'",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := catalog.ParseKind(args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return moderr.Errorf(moderr.ErrOutOfRange, "remove favorite", "", "invalid number %q", args[1])
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		logger.Debug("removing favorite", "kind", kind, "index", n-1)
		if err := eng.RemoveFavorite(kind, n-1); err != nil {
			return err
		}
		if jsonOutput {
			return printPathLists([]catalog.Kind{kind}, eng.Favorites, "")
		}
		PrintSuccess(fmt.Sprintf("Removed %s favorite %d", kind, n))
		return nil
	},
}

var favoriteLsCmd = &cobra.Command{
	Use:       "ls [game|mods]",
	Short:     "List favorite paths",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"game", "mods"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kinds := []catalog.Kind{catalog.KindGame, catalog.KindMods}
		if len(args) == 1 {
			kind, err := catalog.ParseKind(args[0])
			if err != nil {
				return err
			}
			kinds = []catalog.Kind{kind}
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		return printPathLists(kinds, eng.Favorites, "No %s favorites")
	},
}

func kindsFromArgs(args []string) ([]catalog.Kind, error) {
	if len(args) == 0 {
		return catalog.Kinds, nil
	}
	kind, err := catalog.ParseKind(args[0])
	if err != nil {
		return nil, err
	}
	return []catalog.Kind{kind}, nil
}

// printPathLists prints one numbered list per kind, or a JSON object keyed
// by kind.
func printPathLists(kinds []catalog.Kind, get func(catalog.Kind) ([]string, error), emptyFmt string) error {
	lists := make(map[catalog.Kind][]string, len(kinds))
	for _, k := range kinds {
		paths, err := get(k)
		if err != nil {
			return err
		}
		if paths == nil {
			paths = []string{}
		}
		lists[k] = paths
	}

	if jsonOutput {
		return outputJSON(lists)
	}

	for _, k := range kinds {
		if len(kinds) > 1 {
			PrintSection(string(k))
		}
		if len(lists[k]) == 0 {
			PrintEmptyState(fmt.Sprintf(emptyFmt, k))
			continue
		}
		PrintNumberedList(lists[k], 1)
	}
	return nil
}

func init() {
	recentCmd.Flags().BoolVar(&recentClear, "clear", false, "Clear the recent paths instead of listing them")

	favoriteCmd.AddCommand(favoriteAddCmd)
	favoriteCmd.AddCommand(favoriteRmCmd)
	favoriteCmd.AddCommand(favoriteLsCmd)
}
