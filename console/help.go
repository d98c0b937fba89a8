package console

import (
	"sort"
	"strings"
)

var helpTopics = map[string]string{
	"quit": "Quit command to exit the program.",
	"EOF":  "EOF signal to exit the program.",
	"help": `List available commands with "help" or detailed help with "help cmd".`,
	"create": "Usage: create <class>\n" +
		"        Create a new class instance and print its id.",
	"show": "Usage: show <class> <id> or <class>.show(<id>)\n" +
		"        Display the string representation of a class instance of a given id.",
	"destroy": "Usage: destroy <class> <id> or <class>.destroy(<id>)\n" +
		"        Delete a class instance of a given id.",
	"all": "Usage: all or all <class> or <class>.all()\n" +
		"        Display string representations of all instances of a given class.\n" +
		"        If no class is specified, displays all instantiated objects.",
	"count": "Usage: count <class> or <class>.count()\n" +
		"        Retrieve the number of instances of a given class.",
	"update": "Usage: update <class> <id> <attribute_name> <attribute_value> or\n" +
		"       <class>.update(<id>, <attribute_name>, <attribute_value>) or\n" +
		"       <class>.update(<id>, <dictionary>)\n" +
		"        Update a class instance of a given id by adding or updating\n" +
		"        a given attribute key/value pair or dictionary.",
}

const helpHeader = "Documented commands (type help <topic>):"

// helpIndex lists every documented command, sorted, under a ruled header.
func helpIndex() string {
	names := make([]string, 0, len(helpTopics))
	for name := range helpTopics {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(helpHeader + "\n")
	b.WriteString(strings.Repeat("=", len(helpHeader)) + "\n")
	b.WriteString(strings.Join(names, "  ") + "\n")
	return b.String()
}
