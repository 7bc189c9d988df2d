package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/modslayer/internal/engine"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

var (
	launchDirect bool
	launchDryRun bool
)

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start the configured game",
	Long: `Start the game at the configured game path.

A game folder is searched for .exe, .AppImage and .sh files; when there are
several you are asked which one to run. A game installed under a Steam
compatibility prefix can be launched through Steam instead, unless --direct
is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		chooser := &promptChooser{
			in:          bufio.NewReader(cmd.InOrStdin()),
			out:         stdout,
			forceDirect: launchDirect,
		}

		logger.Debug("launching", "game", eng.GamePath(), "direct", launchDirect, "dry-run", launchDryRun)
		result, err := eng.Launch(cmd.Context(), &engine.LaunchRequest{Chooser: chooser, DryRun: launchDryRun})
		if errors.Is(err, moderr.ErrCancelled) {
			PrintWarning("Launch cancelled")
			return nil
		}
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}
		if !result.Started {
			PrintInfo(fmt.Sprintf("Would launch %s", result.Plan))
			return nil
		}
		PrintSuccess(fmt.Sprintf("Launched %s", result.Plan))
		return nil
	},
}

// promptChooser asks launch questions on the terminal.
type promptChooser struct {
	in          *bufio.Reader
	out         io.Writer
	forceDirect bool
}

func (p *promptChooser) ChooseIndirect(appID string) (bool, error) {
	if p.forceDirect {
		return false, nil
	}

	_, _ = fmt.Fprintf(p.out, "This looks like a Steam game (app %s). Launch through Steam? [Y/n] ", appID)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "", "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, moderr.Errorf(moderr.ErrCancelled, "choose launch method", "", "unrecognised answer %q", answer)
	}
}

func (p *promptChooser) ChooseExecutable(candidates []string) (string, error) {
	_, _ = fmt.Fprintln(p.out, "Multiple executables found:")
	for i, c := range candidates {
		_, _ = fmt.Fprintf(p.out, "  %d. %s\n", i+1, c)
	}
	_, _ = fmt.Fprintf(p.out, "Select one [1-%d]: ", len(candidates))

	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(candidates) {
		return candidates[n-1], nil
	}
	if slices.Contains(candidates, answer) {
		return answer, nil
	}
	return "", moderr.Errorf(moderr.ErrCancelled, "choose executable", "", "no executable selected")
}

func (p *promptChooser) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", moderr.New(moderr.ErrCancelled, "read answer", "", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	launchCmd.Flags().BoolVar(&launchDirect, "direct", false, "Never launch through Steam")
	launchCmd.Flags().BoolVar(&launchDryRun, "dry-run", false, "Resolve what would be launched without starting it")
}
