// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package session

import "strings"

// Command is a recognized user input.
type Command int

const (
	// CommandUnknown is any input that isn't one of the recognized commands.
	CommandUnknown Command = iota
	// CommandStart greets the user.
	CommandStart
	// CommandHelp shows usage.
	CommandHelp
	// CommandTweet starts drafting a post.
	CommandTweet
	// CommandPost approves the pending draft.
	CommandPost
	// CommandNew discards the pending draft and drafts another article.
	CommandNew
	// CommandExit cancels the session.
	CommandExit
)

// ParseCommand maps raw user input to a Command. Matching is
// case-insensitive and ignores surrounding whitespace; anything unrecognized
// is CommandUnknown.
func ParseCommand(raw string) Command {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "/start":
		return CommandStart
	case "/help":
		return CommandHelp
	case "/tweet":
		return CommandTweet
	case "post":
		return CommandPost
	case "new":
		return CommandNew
	case "exit":
		return CommandExit
	}
	return CommandUnknown
}

// String implements the fmt.Stringer interface.
func (c Command) String() string {
	switch c {
	case CommandStart:
		return "/start"
	case CommandHelp:
		return "/help"
	case CommandTweet:
		return "/tweet"
	case CommandPost:
		return "post"
	case CommandNew:
		return "new"
	case CommandExit:
		return "exit"
	}
	return "unknown"
}
