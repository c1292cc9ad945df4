package imap

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/tilda-center/backend/internal/model"
)

// Credential builds the delegated login string the mail server expects:
// the master account authenticates "as" the target mailbox owner by
// encoding the owner into the login name.
func Credential(email, masterUser string) string {
	return email + "*" + masterUser
}

// Config holds the mail server connection parameters for the service.
type Config struct {
	// Host is the IMAP server, optionally with a port (defaults to 993).
	Host string

	// MasterUser and MasterPassword are the delegated-auth credential.
	MasterUser     string
	MasterPassword string

	// Timeout bounds every round trip of every session.
	Timeout time.Duration
}

// Service is the public mailbox API: folder listing and management plus
// message retrieval, on behalf of an authenticated user. Every operation
// opens a brand-new single-use session and closes it before returning;
// nothing is cached or pooled, so a Service is safe for concurrent use.
type Service struct {
	cfg  Config
	dial DialFunc
	log  *slog.Logger
}

// NewService creates a mailbox service for the given server.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, log: slog.Default()}
}

// connect opens a session and performs the delegated login for user. On
// any failure the session is already torn down; on success the caller owns
// the returned session and must Close it.
func (s *Service) connect(ctx context.Context, user model.Identity) (*Session, error) {
	sess, err := Open(ctx, s.cfg.Host, Options{Timeout: s.cfg.Timeout, Dial: s.dial})
	if err != nil {
		return nil, err
	}
	if err := sess.Login(ctx, Credential(user.Email, s.cfg.MasterUser), s.cfg.MasterPassword); err != nil {
		sess.Close()
		return nil, err
	}
	s.log.Debug("imap session opened", "host", s.cfg.Host, "user", user.Email)
	return sess, nil
}

// ListFolders returns the user's full folder hierarchy as reported by the
// server, top-level folders in first-seen order.
func (s *Service) ListFolders(ctx context.Context, user model.Identity) ([]*model.Mailbox, error) {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	entries, err := sess.List(ctx)
	if err != nil {
		return nil, err
	}

	tree := NewTreeBuilder()
	for _, raw := range entries {
		entry, err := DecodeListEntry(raw)
		if err != nil {
			return nil, err
		}
		tree.Insert(entry)
	}
	return tree.Roots(), nil
}

// GetFolder verifies that the named folder exists and is selectable.
func (s *Service) GetFolder(ctx context.Context, user model.Identity, name string) (*model.Mailbox, error) {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if _, err := sess.Select(ctx, name); err != nil {
		return nil, err
	}
	return &model.Mailbox{Name: name, Flags: []string{}, Children: []*model.Mailbox{}}, nil
}

// CreateFolder makes a new folder for the user.
func (s *Service) CreateFolder(ctx context.Context, user model.Identity, name string) error {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.Create(ctx, name)
}

// DeleteFolder removes a folder. The folder's existence is confirmed
// against a fresh listing first; when no entry matches, the operation
// reports FolderNotFound without ever issuing a DELETE.
func (s *Service) DeleteFolder(ctx context.Context, user model.Identity, name string) error {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.List(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, raw := range entries {
		entry, err := DecodeListEntry(raw)
		if err != nil {
			return err
		}
		if entry.Name == name {
			found = true
			break
		}
	}
	if !found {
		return folderFault(fmt.Sprintf("no folder %q to delete", name))
	}

	return sess.Delete(ctx, name)
}

// ListMessages fetches every message of the folder and returns summaries
// with sequential 1-based ids in fetch order. The ids are only meaningful
// for the session that produced them and must not be cached.
func (s *Service) ListMessages(ctx context.Context, user model.Identity, folder string) ([]model.EMail, error) {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	info, err := sess.Select(ctx, folder)
	if err != nil {
		return nil, err
	}
	if info.Exists < 0 {
		return nil, protocolFault("no message count for %q", folder)
	}
	if info.Exists == 0 {
		return []model.EMail{}, nil
	}

	entries, err := sess.Fetch(ctx, "1:"+strconv.Itoa(info.Exists), "(RFC822)")
	if err != nil {
		return nil, err
	}

	emails := make([]model.EMail, 0, len(entries))
	for i, entry := range entries {
		emails = append(emails, parseMessage(i+1, entry.Body))
	}
	return emails, nil
}

// GetMessage fetches one message by its per-session sequence id.
func (s *Service) GetMessage(ctx context.Context, user model.Identity, folder string, id int) (*model.EMail, error) {
	sess, err := s.connect(ctx, user)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	if _, err := sess.Select(ctx, folder); err != nil {
		return nil, err
	}

	entries, err := sess.Fetch(ctx, strconv.Itoa(id), "(RFC822)")
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, protocolFault("message %d not in %q", id, folder)
	}

	email := parseMessage(id, entries[0].Body)
	return &email, nil
}
