package cmd

import (
	"fmt"

	"bol-processing-service/cmd/bolproc/config"
	"bol-processing-service/internal/reconciler"
	"bol-processing-service/internal/workspace"
	"bol-processing-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the merge command
var (
	inputFile string
	sessionID string
)

// mergeCmd represents the merge command
var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge external order data into a processed session",
	Long: `Merge joins an external order file (CSV or Excel) with the combined
shipment CSV of a previous processing session. Matched rows receive the
order metadata, pallet and cube columns are computed, and the combined
file is rewritten sorted by cancel date.

Examples:
  bolproc merge --input orders.xlsx --session session_20260831_120000_ab12cd34
  bolproc merge --input orders.csv --session session_20260831_120000_ab12cd34 --workspace /var/lib/bolproc`,

	PreRunE: validateMergeFlags,
	RunE:    runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to external order file, CSV or Excel (required)")
	mergeCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session ID from a previous process run (required)")
	mergeCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "root directory for session folders")

	mergeCmd.MarkFlagRequired("input")
	mergeCmd.MarkFlagRequired("session")

	viper.BindPFlag("input", mergeCmd.Flags().Lookup("input"))
	viper.BindPFlag("session", mergeCmd.Flags().Lookup("session"))
}

func validateMergeFlags(cmd *cobra.Command, args []string) error {
	inputFile = viper.GetString("input")
	sessionID = viper.GetString("session")

	if inputFile == "" {
		return fmt.Errorf("input file is required")
	}
	if sessionID == "" {
		return fmt.Errorf("session is required")
	}

	return validateFileExists(inputFile, "external order file")
}

func runMerge(cmd *cobra.Command, args []string) error {
	session, err := workspace.OpenSession(resolveWorkspaceRoot(), sessionID)
	if err != nil {
		return err
	}

	combinedPath := session.FilePath(config.GetCombinedName())
	result, err := reconciler.NewReconciler(logger.GetGlobalLogger()).Reconcile(combinedPath, inputFile)
	if err != nil {
		return err
	}

	fmt.Printf("Merged %d of %d external rows into %s\n",
		result.MatchedRows, result.ExternalRows, combinedPath)
	return nil
}
