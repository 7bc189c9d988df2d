package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/danieljhkim/modslayer/internal/installer"
	"github.com/danieljhkim/modslayer/internal/moderr"
)

var (
	exportFormat string
	verifyUpdate bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check installed mods against their install-time checksums",
	Long: `Report mods whose files were deleted or changed since they were installed.
Exits with an error when any problem is found.

With --update, the current contents of changed mods are accepted and their
checksums recorded again. Missing mods are still reported.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		verify := eng.Verify
		if verifyUpdate {
			logger.Debug("updating checksums of changed mods")
			verify = eng.UpdateChecksums
		}
		result, err := verify()
		if err != nil {
			return err
		}

		if jsonOutput {
			if err := outputJSON(result); err != nil {
				return err
			}
		} else {
			if len(result.Checks) == 0 {
				PrintEmptyState("No mods installed")
				return nil
			}
			for _, c := range result.Checks {
				msg := fmt.Sprintf("%s: %s", c.Record.Name, c.Status)
				if c.Status == installer.StatusOK {
					PrintSuccess(msg)
				} else {
					PrintWarning(msg)
				}
			}
			if result.Updated > 0 {
				PrintInfo(fmt.Sprintf("Updated %s", PrintCount(result.Updated, "checksum", "checksums")))
			}
		}

		if result.Problems > 0 {
			return moderr.Errorf(moderr.ErrInstall, "verify", "", "%s", PrintCount(result.Problems, "mod needs attention", "mods need attention"))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the load order as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer closeEngine(eng)

		order := eng.Export()

		format := exportFormat
		if jsonOutput {
			format = "json"
		}
		switch format {
		case "json":
			return outputJSON(order)
		case "yaml":
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err := enc.Encode(order); err != nil {
				return fmt.Errorf("failed to encode yaml: %w", err)
			}
			return enc.Close()
		default:
			return moderr.Errorf(moderr.ErrConfiguration, "export", "", "unknown format %q (want json or yaml)", exportFormat)
		}
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyUpdate, "update", false, "Record new checksums for changed mods")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
}
