package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"bullet-ai/domain/models"
	"bullet-ai/pkg/plan"
	"bullet-ai/pkg/views"
)

func printViews(w io.Writer, tasks []models.Task, now time.Time) {
	v := views.Classify(tasks, now)
	stats := views.ComputeStats(tasks, now)

	fmt.Fprintf(w, "%s  (%s)\n", now.Format("Mon 2006-01-02"), now.Location())
	printSection(w, "Today", v.Today, now)
	printSection(w, "Future", v.Future, now)
	printSection(w, "Migration", v.Migration, now)
	fmt.Fprintf(w, "\n%d total · %d done · %d pending · %d overdue\n",
		stats.Total, stats.Completed, stats.Pending, stats.Overdue)
}

func printSection(w io.Writer, title string, tasks []models.Task, now time.Time) {
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(tasks))
	fmt.Fprintln(w, strings.Repeat("─", 40))
	if len(tasks) == 0 {
		fmt.Fprintln(w, "  -")
		return
	}
	for _, t := range tasks {
		fmt.Fprintln(w, "  "+formatTask(t, now))
	}
}

// formatTask - bullet แบบ journal: • เปิด, × เสร็จ
func formatTask(t models.Task, now time.Time) string {
	mark := "•"
	if t.IsCompleted {
		mark = "×"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s  %s", mark, shortID(t), t.Title)
	if t.Priority == models.PriorityHigh {
		b.WriteString(" !")
	}
	if t.DueDate != nil {
		fmt.Fprintf(&b, "  [%s]", t.DueDate.In(now.Location()).Format("2006-01-02"))
		if views.IsOverdue(t, now) {
			b.WriteString(" overdue")
		}
	}
	for _, tag := range t.Tags {
		b.WriteString(" #" + tag)
	}
	return b.String()
}

func shortID(t models.Task) string {
	return t.ID.String()[:8]
}

func printPlan(w io.Writer, p plan.Plan) {
	if len(p.TasksDaily) > 0 {
		fmt.Fprintln(w, "\nSuggested for today:")
		for _, it := range p.TasksDaily {
			printPlanItem(w, it)
		}
	}
	if len(p.TasksFuture) > 0 {
		fmt.Fprintln(w, "\nSuggested for later:")
		for _, it := range p.TasksFuture {
			printPlanItem(w, it)
		}
	}
}

func printPlanItem(w io.Writer, it plan.Item) {
	if it.Description != "" {
		fmt.Fprintf(w, "  - %s: %s\n", it.Title, it.Description)
		return
	}
	fmt.Fprintf(w, "  - %s\n", it.Title)
}
