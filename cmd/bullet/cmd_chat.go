package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bullet-ai/domain/dto"
	"bullet-ai/domain/models"
)

var (
	chatAccept bool
	chatModel  string
	chatAPIKey string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the assistant (it sees your current tasks)",
	Long: `Send one message to the assistant together with a summary of your tasks.

When the reply carries a plan it is printed below the reply. With --accept the
plan is saved: daily items are due today, future items go to migration.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *session) error {
			req := dto.AIChatRequest{
				Messages: []dto.ChatMessage{{Role: "user", Content: strings.Join(args, " ")}},
				APIKey:   chatAPIKey,
				Model:    chatModel,
				Tasks:    taskContext(s.replica.Tasks()),
			}

			resp, err := s.client.Chat(cmd.Context(), req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Reply)
			if resp.Plan == nil || resp.Plan.Len() == 0 {
				return nil
			}
			printPlan(out, *resp.Plan)

			if !chatAccept {
				fmt.Fprintln(out, "\nRun again with --accept to add these tasks.")
				return nil
			}
			created, err := s.client.AcceptPlan(cmd.Context(), *resp.Plan, uuid.NewString())
			if err != nil {
				return fmt.Errorf("accept plan: %w", err)
			}
			fmt.Fprintf(out, "\nAdded %d tasks.\n", len(created))
			return nil
		})
	},
}

func init() {
	chatCmd.Flags().BoolVar(&chatAccept, "accept", false, "Save the suggested plan as tasks")
	chatCmd.Flags().StringVar(&chatModel, "model", envOr("BULLET_LLM_MODEL", ""), "Override the server's LLM model")
	chatCmd.Flags().StringVar(&chatAPIKey, "api-key", envOr("BULLET_LLM_API_KEY", ""), "Use your own LLM API key")
}

func taskContext(tasks []models.Task) []dto.TaskContext {
	out := make([]dto.TaskContext, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, dto.TaskContext{
			Title:       t.Title,
			Priority:    string(t.Priority),
			DueDate:     t.DueDate,
			IsCompleted: t.IsCompleted,
		})
	}
	return out
}
