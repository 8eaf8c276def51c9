package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/internal/thumbnail"
	"github.com/spf13/cobra"
)

// cleanCmd 清理残留的临时目录
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stale scratch directories",
	Long: `Remove per-invocation scratch directories left behind by workers
that were killed before their cleanup ran.`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		maxAge, _ := cmd.Flags().GetDuration("max-age")

		if err := runClean(dryRun, maxAge); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Duration("max-age", 24*time.Hour, "Only remove directories older than this")
}

// runClean 执行清理
func runClean(dryRun bool, maxAge time.Duration) error {
	config.InitConfig()
	cfg := config.Get()

	root := cfg.GetScratchDir()
	removed, err := thumbnail.CleanStale(root, maxAge, dryRun)
	if err != nil {
		return err
	}

	for _, dir := range removed {
		if dryRun {
			fmt.Printf("[dry-run] would remove %s\n", dir)
		} else {
			fmt.Printf("removed %s\n", dir)
		}
	}
	fmt.Printf("Scratch root: %s, %d directories older than %v\n", root, len(removed), maxAge)
	return nil
}
