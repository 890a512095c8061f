package main

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"bullet-ai/domain/ports"
	"bullet-ai/pkg/apiclient"
	"bullet-ai/pkg/logger"
)

const (
	minReconnectDelay = time.Second
	maxReconnectDelay = 30 * time.Second
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep the views on screen and update them live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		out := cmd.OutOrStdout()
		var screen sync.Mutex
		redraw := func() {
			screen.Lock()
			defer screen.Unlock()
			renderScreen(out, s)
		}
		s.replica.OnChange(redraw)
		redraw()

		handlers := apiclient.WatchHandlers{
			OnChange: func(change *ports.TaskChange) {
				if !s.replica.Apply(change) {
					logger.Debug("Change feed echo dropped", "task_id", change.TaskID, "mutation_id", change.MutationID)
				}
			},
			OnRollover: func(date string) {
				logger.Debug("Day rollover", "date", date)
				redraw()
			},
		}

		delay := minReconnectDelay
		for {
			started := time.Now()
			err := s.client.Watch(ctx, handlers)
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, apiclient.ErrNoToken) {
				return err
			}
			if time.Since(started) > maxReconnectDelay {
				delay = minReconnectDelay
			}
			logger.Warn("Change feed disconnected, reconnecting", "error", err, "retry_in", delay)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, maxReconnectDelay)

			// ระหว่างหลุดอาจพลาด change ไป จึงโหลดใหม่ทั้งชุด
			if err := s.replica.Load(ctx); err != nil {
				logger.Warn("Reload after reconnect failed", "error", err)
			}
		}
	},
}

func renderScreen(w io.Writer, s *session) {
	// clear screen + cursor home
	fmt.Fprint(w, "\033[H\033[2J")
	printViews(w, s.replica.Tasks(), s.now())
	fmt.Fprintln(w, "\nwatching for changes… (Ctrl+C to quit)")
}

