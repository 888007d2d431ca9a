package bot

import "strings"

// Command is a parsed chat command such as "/price tue pm 130".
type Command struct {
	Name string
	Args []string
}

// ParseCommand accepts "/" and "+" prefixes and drops a trailing "@botname".
func ParseCommand(text string) (Command, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Command{}, false
	}
	head := fields[0]
	if !strings.HasPrefix(head, "/") && !strings.HasPrefix(head, "+") {
		return Command{}, false
	}
	name := head[1:]
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}
