package bot

import (
	"strings"

	kit "remindbot/internal/transport"
)

type CommandKind int

const (
	CommandStart CommandKind = iota + 1
	CommandListAll
	CommandListFuture
	CommandDeletePast
	CommandCreateTask
)

func (k CommandKind) String() string {
	switch k {
	case CommandStart:
		return "start"
	case CommandListAll:
		return "list_all"
	case CommandListFuture:
		return "list_future"
	case CommandDeletePast:
		return "delete_past"
	case CommandCreateTask:
		return "create_task"
	default:
		return "unknown"
	}
}

// Command is a decoded chat message. Text is set only for CommandCreateTask.
type Command struct {
	Kind CommandKind
	Text string
}

var keywords = []struct {
	word string
	kind CommandKind
	desc string
}{
	{"start", CommandStart, "How to use the bot"},
	{"my_notes_list", CommandListAll, "All your reminders"},
	{"future_tasks", CommandListFuture, "Reminders still ahead"},
	{"delete_past_tasks", CommandDeletePast, "Delete reminders that have passed"},
}

// Decode classifies a message text. A message that is exactly one of the
// keywords (optionally addressed as /cmd@botname) is that command; any
// other non-empty text is a reminder to create. Blank text yields ok=false.
func Decode(text string) (cmd Command, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Command{}, false
	}
	if word, found := strings.CutPrefix(trimmed, "/"); found && !strings.ContainsAny(word, " \t\n") {
		if i := strings.IndexByte(word, '@'); i >= 0 {
			word = word[:i]
		}
		for _, k := range keywords {
			if word == k.word {
				return Command{Kind: k.kind}, true
			}
		}
	}
	return Command{Kind: CommandCreateTask, Text: text}, true
}

// Menu is the command list published to the chat platform.
func Menu() []kit.BotCommand {
	out := make([]kit.BotCommand, 0, len(keywords))
	for _, k := range keywords {
		out = append(out, kit.BotCommand{Command: k.word, Description: k.desc})
	}
	return out
}
