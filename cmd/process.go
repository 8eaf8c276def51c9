package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/anoixa/image-thumbnailer/config"
	"github.com/anoixa/image-thumbnailer/internal/app"
	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/spf13/cobra"
)

// processCmd 处理单个事件，便于手动重放
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a single object event",
	Long: `Process a single object event read from a file or stdin.

Examples:
  image-thumbnailer process --event event.json
  cat event.json | image-thumbnailer process`,
	Run: func(cmd *cobra.Command, args []string) {
		eventFile, _ := cmd.Flags().GetString("event")

		if err := runProcess(eventFile); err != nil {
			log.Fatalf("Process failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().String("event", "", "Event JSON file (default: stdin)")
}

// runProcess 同步处理一条事件
func runProcess(eventFile string) error {
	payload, err := readEvent(eventFile)
	if err != nil {
		return err
	}
	ev, err := event.Decode(payload)
	if err != nil {
		return err
	}

	config.InitConfig()
	container := app.NewContainer(config.Get())
	if err := container.Init(); err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer container.Close()

	report, err := container.GetOrchestrator().Process(context.Background(), ev)
	if report != nil && report.Skipped != event.SkipNone {
		fmt.Printf("Skipped: %s\n", report.Skipped)
		return nil
	}
	if report != nil {
		for _, v := range report.Variants {
			if v.Err != nil {
				fmt.Printf("%-7s %s FAILED: %v\n", v.Label, v.FileName, v.Err)
				continue
			}
			fmt.Printf("%-7s %s %s\n", v.Label, v.FileName, v.URL)
		}
	}
	return err
}

func readEvent(eventFile string) ([]byte, error) {
	if eventFile == "" || eventFile == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(eventFile)
}
