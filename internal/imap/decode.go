package imap

import (
	"strings"
)

// ListEntry is one decoded LIST reply: the full mailbox path, the server's
// attribute flags (leading backslash stripped), and the hierarchy
// separator. A NIL separator decodes as the empty string, meaning the
// mailbox name is flat.
type ListEntry struct {
	Name      string
	Flags     []string
	Separator string
}

// Path splits the mailbox name on the hierarchy separator. A flat name is
// a single segment.
func (e ListEntry) Path() []string {
	if e.Separator == "" {
		return []string{e.Name}
	}
	return strings.Split(e.Name, e.Separator)
}

// DecodeListEntry parses the `(flags) "sep" "name"` shape of a raw LIST
// reply. Any deviation from that shape is a ProtocolFault rather than a
// silently mis-assigned separator.
func DecodeListEntry(raw RawListEntry) (ListEntry, error) {
	p := parser{in: string(raw)}

	flags, err := p.flagList()
	if err != nil {
		return ListEntry{}, err
	}
	if err := p.space(); err != nil {
		return ListEntry{}, err
	}
	sep, err := p.separator()
	if err != nil {
		return ListEntry{}, err
	}
	if err := p.space(); err != nil {
		return ListEntry{}, err
	}
	name, err := p.mailboxName()
	if err != nil {
		return ListEntry{}, err
	}
	if rest := strings.TrimSpace(p.rest()); rest != "" {
		return ListEntry{}, protocolFault("trailing data %q in LIST reply %q", rest, raw)
	}

	return ListEntry{Name: name, Flags: flags, Separator: sep}, nil
}

// parser walks one LIST reply line.
type parser struct {
	in  string
	pos int
}

func (p *parser) rest() string {
	return p.in[p.pos:]
}

func (p *parser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *parser) peek() byte {
	return p.in[p.pos]
}

func (p *parser) take(c byte) error {
	if p.eof() || p.peek() != c {
		return protocolFault("expected %q at offset %d in LIST reply %q", string(c), p.pos, p.in)
	}
	p.pos++
	return nil
}

func (p *parser) space() error {
	return p.take(' ')
}

// flagList parses `(\Flag \Flag ...)` into flag names without the leading
// backslash. Duplicates collapse; order is preserved.
func (p *parser) flagList() ([]string, error) {
	if err := p.take('('); err != nil {
		return nil, err
	}

	flags := []string{}
	seen := map[string]bool{}
	for {
		if p.eof() {
			return nil, protocolFault("unterminated flag list in LIST reply %q", p.in)
		}
		if p.peek() == ')' {
			p.pos++
			return flags, nil
		}
		if p.peek() == ' ' {
			p.pos++
			continue
		}

		start := p.pos
		for !p.eof() && p.peek() != ' ' && p.peek() != ')' {
			p.pos++
		}
		flag := strings.TrimPrefix(p.in[start:p.pos], "\\")
		if flag != "" && !seen[flag] {
			seen[flag] = true
			flags = append(flags, flag)
		}
	}
}

// separator parses the hierarchy delimiter: a quoted single character or
// NIL for a flat namespace.
func (p *parser) separator() (string, error) {
	if strings.HasPrefix(p.rest(), "NIL") {
		p.pos += len("NIL")
		return "", nil
	}

	sep, err := p.quoted()
	if err != nil {
		return "", err
	}
	if len(sep) != 1 {
		return "", protocolFault("separator %q is not a single character in LIST reply %q", sep, p.in)
	}
	return sep, nil
}

// mailboxName parses the final mailbox argument: a quoted string or a bare
// atom running to the end of the line.
func (p *parser) mailboxName() (string, error) {
	if !p.eof() && p.peek() == '"' {
		return p.quoted()
	}

	start := p.pos
	for !p.eof() && p.peek() != ' ' {
		p.pos++
	}
	if p.pos == start {
		return "", protocolFault("missing mailbox name in LIST reply %q", p.in)
	}
	return p.in[start:p.pos], nil
}

// quoted parses a double-quoted string with backslash escapes.
func (p *parser) quoted() (string, error) {
	if err := p.take('"'); err != nil {
		return "", err
	}

	var b strings.Builder
	for {
		if p.eof() {
			return "", protocolFault("unterminated quoted string in LIST reply %q", p.in)
		}
		c := p.peek()
		p.pos++
		switch c {
		case '"':
			return b.String(), nil
		case '\\':
			if p.eof() {
				return "", protocolFault("dangling escape in LIST reply %q", p.in)
			}
			b.WriteByte(p.peek())
			p.pos++
		default:
			b.WriteByte(c)
		}
	}
}
