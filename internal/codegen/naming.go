package codegen

import "strings"

var initialisms = map[string]string{
	"id":   "ID",
	"ipc":  "IPC",
	"url":  "URL",
	"uuid": "UUID",
	"http": "HTTP",
}

// exportedName turns a kebab-case or snake_case name into a Go exported name.
func exportedName(name string) string {
	var b strings.Builder
	for _, part := range splitName(name) {
		if up, ok := initialisms[part]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	return b.String()
}

// localName is exportedName with a lowercase first word.
func localName(name string) string {
	parts := splitName(name)
	if len(parts) == 0 {
		return ""
	}
	rest := exportedName(strings.Join(parts[1:], "-"))
	return parts[0] + rest
}

// endpointName is the wire endpoint for a function name: get-user -> get_user.
func endpointName(name string) string {
	return strings.Join(splitName(name), "_")
}

func splitName(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
}
