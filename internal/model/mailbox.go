package model

// Mailbox is one node in a user's folder hierarchy as reported by the mail
// server. A node may be synthetic: a path segment that only exists because a
// deeper folder was listed under it.
type Mailbox struct {
	// Name is the leaf folder name, not the full path.
	Name string `json:"name"`

	// Flags holds the server-reported attributes with the leading
	// backslash stripped (e.g. "HasNoChildren", "Noselect").
	Flags []string `json:"flags"`

	// Separator is the single character the server uses to join path
	// segments. Carried per node; in practice constant per session.
	Separator string `json:"separator"`

	// Children are sub-folders in the order they were first seen in the
	// server's listing.
	Children []*Mailbox `json:"children"`
}

// EMail is one message summary or detail from a folder.
//
// ID is the 1-based position within the folder's current message sequence.
// It is only meaningful relative to the folder and session that produced it
// and must never be cached across requests.
type EMail struct {
	ID        int    `json:"id"`
	MessageID string `json:"msgid"`
	FromAddr  string `json:"from_addr"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Date      string `json:"date"`
}
