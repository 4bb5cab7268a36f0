package main

import (
	"errors"
	"strconv"
	"strings"

	"github.com/ashureev/consolebot/internal/chat"
	"github.com/ashureev/consolebot/internal/domain"
)

type command int

const (
	cmdSend command = iota
	cmdClear
	cmdCopy
	cmdExit
	cmdUnknown
)

var (
	errNothingToCopy = errors.New("no reply to copy yet")
	errBadIndex      = errors.New("no message with that number")
)

// parseCommand splits a prompt line into a command and its argument.
// Anything not starting with "/" is a message to send.
func parseCommand(line string) (command, string) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return cmdSend, line
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/clear":
		return cmdClear, arg
	case "/copy":
		return cmdCopy, arg
	case "/exit", "/quit":
		return cmdExit, arg
	default:
		return cmdUnknown, name
	}
}

// copyTarget resolves a /copy argument to a message id. An empty argument
// selects the newest assistant message; otherwise arg is the 1-based number
// shown next to each message.
func copyTarget(snap chat.Snapshot, arg string) (string, error) {
	if arg == "" {
		for i := len(snap.Messages) - 1; i >= 0; i-- {
			if snap.Messages[i].Role == domain.RoleAssistant {
				return snap.Messages[i].ID, nil
			}
		}
		return "", errNothingToCopy
	}

	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(snap.Messages) {
		return "", errBadIndex
	}
	return snap.Messages[n-1].ID, nil
}
