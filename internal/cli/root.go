package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	verbose    bool
	rootDir    string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for modslayer.
var rootCmd = &cobra.Command{
	Use:     "modslayer",
	Version: "dev",
	Short:   "Game mod manager",
	Long: `modslayer installs game mods into a managed mods folder and keeps their
load order, enabled state and install paths in one place.

It also remembers recently used and favorite paths and can launch the
configured game directly or through Steam.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setOutput(cmd.OutOrStdout(), cmd.ErrOrStderr())
		logger.SetOutput(cmd.ErrOrStderr())
		if verbose {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.WarnLevel)
		}
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// helpFunc prints the command description, usage, the subcommands under
// their colored group titles and the flags.
func helpFunc(cmd *cobra.Command, args []string) {
	var b strings.Builder

	if desc := cmd.Long; desc != "" || cmd.Short != "" {
		if desc == "" {
			desc = cmd.Short
		}
		b.WriteString(desc + "\n\n")
	}
	b.WriteString(sectionTitleColor.Sprint("Usage:") + "\n")
	fmt.Fprintf(&b, "  %s\n\n", cmd.UseLine())

	sections := make([]*cobra.Group, 0, len(cmd.Groups())+1)
	sections = append(sections, cmd.Groups()...)
	sections = append(sections, &cobra.Group{Title: "Commands:"})
	for _, group := range sections {
		var lines []string
		for _, c := range cmd.Commands() {
			if c.GroupID == group.ID && (c.IsAvailableCommand() || c.Name() == "help") {
				lines = append(lines, fmt.Sprintf("  %-*s %s", c.NamePadding(), c.Name(), c.Short))
			}
		}
		if len(lines) == 0 {
			continue
		}
		title := groupTitleColor
		if group.ID == "" {
			title = sectionTitleColor
		}
		b.WriteString(title.Sprint(group.Title) + "\n")
		b.WriteString(strings.Join(lines, "\n") + "\n\n")
	}

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		b.WriteString(sectionTitleColor.Sprint("Flags:") + "\n")
		b.WriteString(cmd.LocalFlags().FlagUsages())
		b.WriteString(cmd.InheritedFlags().FlagUsages())
		b.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&b, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), b.String())
}

func init() {
	rootCmd.SetHelpFunc(helpFunc)
	rootCmd.SetCompletionCommandGroupID("cli-tooling")

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Data directory (overrides $MODSLAYER_ROOT)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "mods",
		Title: "Mod Management:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "paths",
		Title: "Paths & History:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "game",
		Title: "Game:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the modslayer CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := rootCmd.Find(args)
			if err != nil || target == nil {
				return rootCmd.Help()
			}
			return target.Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	// Mod Management commands
	for _, c := range []*cobra.Command{listCmd, addCmd, removeCmd, enableCmd, disableCmd, toggleCmd, moveCmd, verifyCmd, exportCmd} {
		c.GroupID = "mods"
		rootCmd.AddCommand(c)
	}

	// Paths & History commands
	for _, c := range []*cobra.Command{gameCmd, modsFolderCmd, recentCmd, favoriteCmd} {
		c.GroupID = "paths"
		rootCmd.AddCommand(c)
	}

	// Game commands
	launchCmd.GroupID = "game"
	rootCmd.AddCommand(launchCmd)
}

// Execute executes the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		logger.Debug("command failed", "kind", kindName(err), "err", err)
	}
	return err
}
