package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/session"
)

const (
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// render prints the board one column after another.
func render(w io.Writer, columns map[domain.Status][]domain.Task, theme session.Theme) {
	today := domain.Today()
	for i, status := range domain.AllStatuses() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		tasks := columns[status]
		header := fmt.Sprintf("%s (%d)", status.Label(), len(tasks))
		if theme == session.ThemeDark {
			fmt.Fprintln(w, ansiBold+header+ansiReset)
		} else {
			fmt.Fprintln(w, header)
			fmt.Fprintln(w, strings.Repeat("-", len(header)))
		}
		if len(tasks) == 0 {
			fmt.Fprintln(w, "  (empty)")
			continue
		}
		for _, t := range tasks {
			fmt.Fprintf(w, "  #%d [%s] %s", t.ID, t.Priority, t.Title)
			if t.DueDate != nil {
				fmt.Fprintf(w, " (due %s", t.DueDate)
				if t.IsOverdue(today) {
					fmt.Fprint(w, ", overdue")
				}
				fmt.Fprint(w, ")")
			}
			fmt.Fprintln(w)
		}
	}
}

func renderStats(w io.Writer, stats *domain.Statistics) {
	fmt.Fprintf(w, "Total: %d\n", stats.Total)
	fmt.Fprintf(w, "%s: %d\n", domain.StatusBacklog.Label(), stats.ByStatus.Backlog)
	fmt.Fprintf(w, "%s: %d\n", domain.StatusInProgress.Label(), stats.ByStatus.InProgress)
	fmt.Fprintf(w, "%s: %d\n", domain.StatusDone.Label(), stats.ByStatus.Done)
	fmt.Fprintf(w, "Priority LOW: %d, MEDIUM: %d, HIGH: %d\n",
		stats.ByPriority.Low, stats.ByPriority.Medium, stats.ByPriority.High)
}
