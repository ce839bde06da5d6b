package bot

import (
	"fmt"
	"strings"

	"remindbot/internal/reminder"
)

const (
	replyEmptyList = "Task list is empty"
	replyFailure   = "Something went wrong, please try again later"
)

const greetingTemplate = `Hello, %s!

To create a reminder send a line like:
01.01.2022 20:00 Do the homework

All your reminders: /my_notes_list

Reminders still ahead: /future_tasks

Delete reminders that have passed: /delete_past_tasks`

func greeting(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(greetingTemplate, name)
}

// renderList renders one task per line, or the empty-list message.
func renderList(tasks []reminder.Task) string {
	if len(tasks) == 0 {
		return replyEmptyList
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.String())
	}
	return b.String()
}

func renderSaved(t reminder.Task) string {
	return "Reminder saved: " + t.String()
}
