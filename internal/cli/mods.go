package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modslayer/internal/engine"
	"github.com/danieljhkim/modslayer/internal/moderr"
	"github.com/danieljhkim/modslayer/internal/registry"
)

var (
	listEnabledOnly bool
	addFolder       bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List installed mods in load order",
	Long: `Display installed mods in load order. Mods with a lower priority load first,
so later mods override earlier ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		mods := eng.ListMods()
		if listEnabledOnly {
			mods = eng.EnabledMods()
		}

		if jsonOutput {
			if mods == nil {
				mods = []registry.ModRecord{}
			}
			return outputJSON(mods)
		}

		if len(mods) == 0 {
			PrintEmptyState("No mods installed")
			return nil
		}

		rows := make([][]string, 0, len(mods))
		for _, m := range mods {
			rows = append(rows, []string{
				strconv.Itoa(m.Priority),
				strconv.Itoa(m.ID),
				m.Name,
				string(m.Kind),
				enabledLabel(m.Enabled),
			})
		}
		PrintTable([]string{"#", "ID", "NAME", "TYPE", "STATUS"}, rows)
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Install a mod from a file or folder",
	Long: `Copy a mod into the mods folder and append it to the load order.

A directory is installed as a folder mod; use --folder to insist on one.
The mod's name comes from the file or folder name, and an existing mod or
file with the same name is never overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		folder := addFolder
		if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
			folder = true
		}

		logger.Debug("installing mod", "path", args[0], "folder", folder)
		result, err := eng.AddMod(&engine.AddModRequest{Path: args[0], Folder: folder})
		if err != nil {
			return err
		}
		for _, w := range result.Warnings {
			logger.Warn(w)
		}

		if jsonOutput {
			return outputJSON(result.Record)
		}

		PrintSuccess(fmt.Sprintf("Installed %s (id %d, priority %d)", result.Record.Name, result.Record.ID, result.Record.Priority))
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Uninstall a mod",
	Long: `Delete a mod's files from the mods folder and remove it from the load order.
A mod whose files were already deleted by hand is removed all the same.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		logger.Debug("removing mod", "id", id)
		result, err := eng.RemoveMod(id)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if result.PayloadMissing {
			PrintWarning(fmt.Sprintf("Files for %s were already gone", result.Record.Name))
		}
		PrintSuccess(fmt.Sprintf("Removed %s", result.Record.Name))
		return nil
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a mod",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a mod without uninstalling it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(args[0], false)
	},
}

func setEnabled(arg string, enabled bool) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	logger.Debug("setting mod state", "id", id, "enabled", enabled)
	if err := eng.SetModEnabled(id, enabled); err != nil {
		return err
	}
	return reportMod(eng, id)
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a mod between enabled and disabled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		logger.Debug("toggling mod", "id", id)
		if _, err := eng.ToggleMod(id); err != nil {
			return err
		}
		return reportMod(eng, id)
	},
}

var moveCmd = &cobra.Command{
	Use:   "move <id> up|down",
	Short: "Move a mod one step in the load order",
	Long: `Swap a mod with its neighbour in the load order. "up" loads the mod earlier,
"down" loads it later. Moving past either end does nothing.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var dir registry.Direction
		switch args[1] {
		case "up":
			dir = registry.Up
		case "down":
			dir = registry.Down
		default:
			return moderr.Errorf(moderr.ErrOutOfRange, "move mod", "", "direction must be up or down, got %q", args[1])
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		logger.Debug("moving mod", "id", id, "direction", args[1])
		if err := eng.MoveMod(id, dir); err != nil {
			return err
		}
		return reportMod(eng, id)
	},
}

// reportMod prints the current state of a mod after a change.
func reportMod(eng *engine.Engine, id int) error {
	rec, err := eng.GetMod(id)
	if err != nil {
		return err
	}
	if jsonOutput {
		return outputJSON(rec)
	}
	state := "disabled"
	if rec.Enabled {
		state = "enabled"
	}
	PrintSuccess(fmt.Sprintf("%s is %s at priority %d", rec.Name, state, rec.Priority))
	return nil
}

func init() {
	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled", false, "Only list enabled mods")
	addCmd.Flags().BoolVar(&addFolder, "folder", false, "Install the path as a folder mod")
}
