package command

import "strings"

// ParseResult holds the parsed command string and arguments from a chat line.
type ParseResult struct {
	// Command is the first word of the input, case preserved.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command with inner spacing preserved.
	RawArgs string
}

// IsCommand reports whether the line is addressed to the command registry,
// i.e. it starts with the command marker.
func (p ParseResult) IsCommand() bool {
	return strings.HasPrefix(p.Command, "/") && len(p.Command) > 1
}

// Parse splits a chat line into a command and arguments.
//
// Command strings are registered in both upper and lower case, so the case
// of the command word is kept as typed.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	spaceIdx := strings.IndexAny(line, " \t")
	if spaceIdx < 0 {
		return ParseResult{Command: line}
	}

	rest := strings.TrimSpace(line[spaceIdx+1:])
	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}

	return ParseResult{
		Command: line[:spaceIdx],
		Args:    args,
		RawArgs: rest,
	}
}
