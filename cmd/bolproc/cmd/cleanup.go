package cmd

import (
	"fmt"
	"time"

	"bol-processing-service/internal/workspace"

	"github.com/spf13/cobra"
)

var maxSessionAge time.Duration

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove old session directories",
	Long: `Cleanup removes session directories older than the given age from the
workspace root.

Examples:
  bolproc cleanup
  bolproc cleanup --max-age 2h --workspace /var/lib/bolproc`,

	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().DurationVar(&maxSessionAge, "max-age", 24*time.Hour, "remove sessions older than this")
	cleanupCmd.Flags().StringVarP(&workspaceRoot, "workspace", "w", "", "root directory for session folders")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	removed, err := workspace.CleanupSessions(resolveWorkspaceRoot(), maxSessionAge)
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d session(s)\n", removed)
	return nil
}
