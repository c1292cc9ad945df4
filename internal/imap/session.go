package imap

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort    = "993"
	defaultTimeout = 30 * time.Second

	statusOK  = "OK"
	statusNo  = "NO"
	statusBad = "BAD"
)

// DialFunc establishes the underlying connection for a session. The default
// dials TLS; tests inject a plain TCP dialer.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// Options configures a Session.
type Options struct {
	// Timeout bounds every round trip (connect, greeting, each command).
	// Zero means a 30 second default.
	Timeout time.Duration

	// Dial overrides the TLS dialer when non-nil.
	Dial DialFunc
}

// Session owns one authenticated IMAP connection's lifecycle: connect,
// login, command issuance, teardown. A session serves exactly one request
// and is never pooled or reused. Sessions are not safe for concurrent use;
// every command is a strictly sequential round trip.
type Session struct {
	conn    net.Conn
	br      *bufio.Reader
	timeout time.Duration
	tag     int
	closed  bool
}

// SelectionInfo holds server metadata reported by a SELECT.
type SelectionInfo struct {
	// Exists is the server-reported message count, or -1 when the server
	// sent no EXISTS line.
	Exists int
}

// RawListEntry is one untagged LIST reply with the "* LIST " prefix
// stripped, e.g. `(\HasNoChildren) "." "INBOX.Sent"`.
type RawListEntry string

// RawFetchEntry is one untagged FETCH reply carrying a message literal.
type RawFetchEntry struct {
	// Seq is the message sequence number from the untagged line.
	Seq int

	// Body is the literal payload, normally a full RFC 822 message.
	Body []byte
}

// untagged is one "* ..." reply line, with any literal it carried.
type untagged struct {
	text    string
	literal []byte
}

// response is the outcome of one tagged command round trip.
type response struct {
	status   string
	text     string
	untagged []untagged
}

// Open establishes a connection to host (port 993 unless one is given) and
// reads the server greeting. It returns a ConnectionFault on dial or I/O
// failure and a ProtocolFault on a non-OK greeting.
func Open(ctx context.Context, host string, opts Options) (*Session, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, defaultPort)
	}

	dial := opts.Dial
	if dial == nil {
		dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
			d := &tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}}
			return d.DialContext(ctx, network, addr)
		}
	}

	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return nil, connectionFault(fmt.Sprintf("connecting to %s", addr), err)
	}

	s := &Session{
		conn:    conn,
		br:      bufio.NewReader(conn),
		timeout: timeout,
	}

	if err := s.setDeadline(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	greeting, err := s.readLine()
	if err != nil {
		conn.Close()
		return nil, connectionFault("reading greeting", err)
	}
	if !strings.HasPrefix(greeting, "* OK") && !strings.HasPrefix(greeting, "* PREAUTH") {
		conn.Close()
		return nil, protocolFault("unexpected greeting %q", greeting)
	}

	return s, nil
}

// Close tears the session down: best-effort LOGOUT, then socket close. It
// is idempotent and safe to defer on every exit path, including after a
// failed login.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.conn.SetDeadline(time.Now().Add(s.timeout))
	s.tag++
	fmt.Fprintf(s.conn, "t%d LOGOUT\r\n", s.tag)
	return s.conn.Close()
}

// Login authenticates with the given login string and password. The caller
// builds the delegated-login string; the session does not interpret it.
// A rejected login is an AuthFault.
func (s *Session) Login(ctx context.Context, login, password string) error {
	resp, err := s.roundTrip(ctx, "LOGIN %s %s", quote(login), quote(password))
	if err != nil {
		return err
	}
	if resp.status != statusOK {
		return authFault("login rejected: " + resp.text)
	}
	return nil
}

// Select opens the given folder read-write and returns its selection
// metadata. A NO or BAD result is a FolderNotFound fault. Select is a pure
// read and safe to reissue.
func (s *Session) Select(ctx context.Context, folder string) (SelectionInfo, error) {
	info := SelectionInfo{Exists: -1}

	resp, err := s.roundTrip(ctx, "SELECT %s", quote(folder))
	if err != nil {
		return info, err
	}
	if resp.status != statusOK {
		return info, folderFault(fmt.Sprintf("selecting %q: %s", folder, resp.text))
	}

	for _, u := range resp.untagged {
		fields := strings.Fields(u.text)
		if len(fields) == 2 && strings.EqualFold(fields[1], "EXISTS") {
			if n, err := strconv.Atoi(fields[0]); err == nil {
				info.Exists = n
			}
		}
	}
	return info, nil
}

// List returns the raw LIST reply lines for every folder of the account.
// A reply without a single untagged LIST line is shorter than the two lines
// any well-formed listing has and is reported as a ProtocolFault. List is a
// pure read and safe to reissue.
func (s *Session) List(ctx context.Context) ([]RawListEntry, error) {
	resp, err := s.roundTrip(ctx, `LIST "" "*"`)
	if err != nil {
		return nil, err
	}
	if resp.status != statusOK {
		return nil, protocolFault("LIST failed: %s", resp.text)
	}

	var entries []RawListEntry
	for _, u := range resp.untagged {
		if rest, ok := strings.CutPrefix(u.text, "LIST "); ok {
			entries = append(entries, RawListEntry(rest))
		}
	}
	if len(entries) == 0 {
		return nil, protocolFault("short LIST reply")
	}
	return entries, nil
}

// Fetch retrieves the given item for a sequence set ("3" or "1:12") and
// returns every reply entry that carried a message literal. A NO or BAD
// result is a ProtocolFault embedding the server's error text.
func (s *Session) Fetch(ctx context.Context, set, item string) ([]RawFetchEntry, error) {
	resp, err := s.roundTrip(ctx, "FETCH %s %s", set, item)
	if err != nil {
		return nil, err
	}
	if resp.status != statusOK {
		return nil, protocolFault("FETCH %s failed: %s", set, resp.text)
	}

	var entries []RawFetchEntry
	for _, u := range resp.untagged {
		if u.literal == nil {
			continue
		}
		fields := strings.Fields(u.text)
		if len(fields) < 2 || !strings.EqualFold(fields[1], "FETCH") {
			continue
		}
		seq, _ := strconv.Atoi(fields[0])
		entries = append(entries, RawFetchEntry{Seq: seq, Body: u.literal})
	}
	return entries, nil
}

// Create makes a new folder. Server rejection is a FolderNotFound fault
// carrying the server's text.
func (s *Session) Create(ctx context.Context, name string) error {
	resp, err := s.roundTrip(ctx, "CREATE %s", quote(name))
	if err != nil {
		return err
	}
	if resp.status != statusOK {
		return folderFault(fmt.Sprintf("creating %q: %s", name, resp.text))
	}
	return nil
}

// Delete removes a folder. Server rejection is a FolderNotFound fault.
func (s *Session) Delete(ctx context.Context, name string) error {
	resp, err := s.roundTrip(ctx, "DELETE %s", quote(name))
	if err != nil {
		return err
	}
	if resp.status != statusOK {
		return folderFault(fmt.Sprintf("deleting %q: %s", name, resp.text))
	}
	return nil
}

// roundTrip writes one tagged command and reads replies until the matching
// tagged result line. Cancellation and I/O errors surface as a
// ConnectionFault.
func (s *Session) roundTrip(ctx context.Context, format string, args ...any) (*response, error) {
	if s.closed {
		return nil, connectionFault("session closed", nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, connectionFault("command canceled", err)
	}
	if err := s.setDeadline(ctx); err != nil {
		return nil, err
	}

	s.tag++
	tag := fmt.Sprintf("t%d", s.tag)
	cmd := tag + " " + fmt.Sprintf(format, args...) + "\r\n"
	if _, err := s.conn.Write([]byte(cmd)); err != nil {
		return nil, connectionFault("writing command", err)
	}

	resp := &response{}
	for {
		line, err := s.readLine()
		if err != nil {
			return nil, connectionFault("reading response", err)
		}

		switch {
		case strings.HasPrefix(line, tag+" "):
			rest := strings.TrimPrefix(line, tag+" ")
			status, text, _ := strings.Cut(rest, " ")
			status = strings.ToUpper(status)
			if status != statusOK && status != statusNo && status != statusBad {
				return nil, protocolFault("malformed result line %q", line)
			}
			resp.status = status
			resp.text = text
			return resp, nil

		case strings.HasPrefix(line, "* "):
			u, err := s.readUntagged(strings.TrimPrefix(line, "* "))
			if err != nil {
				return nil, err
			}
			resp.untagged = append(resp.untagged, u)

		case strings.HasPrefix(line, "+ "):
			// Continuation request; we never send literals, ignore.

		default:
			return nil, protocolFault("unexpected reply line %q", line)
		}
	}
}

// readUntagged completes one untagged reply, consuming a `{n}` literal and
// the remainder of the logical line when present.
func (s *Session) readUntagged(text string) (untagged, error) {
	u := untagged{text: text}
	rest := text
	for {
		n, ok := literalSize(rest)
		if !ok {
			return u, nil
		}
		lit := make([]byte, n)
		if _, err := io.ReadFull(s.br, lit); err != nil {
			return u, connectionFault("reading literal", err)
		}
		// Only the message body literal is kept; a second literal on the
		// same line overwrites, which the single-item fetches never hit.
		u.literal = lit

		line, err := s.readLine()
		if err != nil {
			return u, connectionFault("reading literal tail", err)
		}
		u.text += " " + line
		rest = line
	}
}

func (s *Session) readLine() (string, error) {
	line, err := s.br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// setDeadline bounds the next round trip by the session timeout or the
// context deadline, whichever comes first.
func (s *Session) setDeadline(ctx context.Context) error {
	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetDeadline(deadline); err != nil {
		return connectionFault("setting deadline", err)
	}
	return nil
}

// literalSize reports the size of a `{n}` literal marker ending the line.
func literalSize(line string) (int, bool) {
	if !strings.HasSuffix(line, "}") {
		return 0, false
	}
	open := strings.LastIndex(line, "{")
	if open < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(line[open+1 : len(line)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// quote renders s as an IMAP quoted string.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
