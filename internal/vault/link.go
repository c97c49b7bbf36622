package vault

import "strings"

// Link is a reference to another note, or a bare display string when the
// target note does not exist yet. Bare strings self-heal into links on a
// later pass once the target is created.
type Link struct {
	Target string // vault-relative path without extension, empty for bare strings
	Label  string
}

// String renders the link in wiki form, or the bare label when untargeted.
func (l Link) String() string {
	if l.Target == "" {
		return l.Label
	}
	return "[[" + l.Target + "|" + l.Label + "]]"
}

// ParseLink decodes a stored reference field. Anything that is not a
// well-formed wiki link is a bare string.
func ParseLink(value string) Link {
	if !strings.HasPrefix(value, "[[") || !strings.HasSuffix(value, "]]") {
		return Link{Label: value}
	}

	inner := value[2 : len(value)-2]
	target, label, found := strings.Cut(inner, "|")
	if !found {
		return Link{Target: inner, Label: inner}
	}
	return Link{Target: target, Label: label}
}
