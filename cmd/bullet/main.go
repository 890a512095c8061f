// Command bullet is a terminal client for the Bullet AI API. It keeps a local
// replica of the user's tasks, prints the today / future / migration views and
// drives the assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"bullet-ai/pkg/logger"
)

var (
	serverURL string
	token     string
	tzName    string
	verbose   bool
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "bullet",
	Short: "Bullet journal tasks with an AI assistant",
	Long: `bullet keeps your tasks in sync with a Bullet AI server.

Tasks are grouped into three views:
  today      - due today or overdue
  future     - due after today
  migration  - no due date yet, waiting to be scheduled`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.Init(logger.Config{Level: level, Format: "text", Output: "stderr"})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("BULLET_SERVER", "http://localhost:8080"), "API base URL (or set BULLET_SERVER)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("BULLET_TOKEN"), "Access token (or set BULLET_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&tzName, "tz", os.Getenv("BULLET_TZ"), "IANA time zone for views (default: local)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "Request timeout")

	rootCmd.AddCommand(viewsCmd, addCmd, doneCmd, migrateCmd, scheduleCmd, rmCmd, chatCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// location คืน time zone ของ --tz (ว่าง = local)
func location() (*time.Location, error) {
	if tzName == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", tzName, err)
	}
	return loc, nil
}
