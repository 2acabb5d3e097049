package models

import "strings"

// CommandType enumerates supported chat command categories.
type CommandType string

const (
	CommandAge     CommandType = "age"
	CommandDate    CommandType = "date"
	CommandFlocks  CommandType = "flocks"
	CommandAdd     CommandType = "add"
	CommandDelete  CommandType = "delete"
	CommandHelp    CommandType = "help"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed instruction extracted from a chat message.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// Slash reports whether the message was written as an explicit /command.
func (c Command) Slash() bool {
	return strings.HasPrefix(strings.TrimSpace(c.Raw), "/")
}

// ParseCommand derives a Command instance from free-form text messages. Only the
// command word is case-insensitive; arguments keep their case because flock names do.
func ParseCommand(message string) Command {
	tokens := strings.Fields(message)
	cmd := Command{Raw: message}

	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch head {
	case string(CommandAge):
		cmd.Type = CommandAge
	case string(CommandDate):
		cmd.Type = CommandDate
	case string(CommandFlocks), "list":
		cmd.Type = CommandFlocks
	case string(CommandAdd), "set":
		cmd.Type = CommandAdd
	case string(CommandDelete), "rm", "remove":
		cmd.Type = CommandDelete
	case string(CommandHelp), "start":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
