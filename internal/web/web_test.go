package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tilda-center/backend/internal/imap"
	"github.com/tilda-center/backend/internal/model"
	"github.com/tilda-center/backend/internal/web"
	"github.com/tilda-center/backend/tests/testutil"
)

const testSecret = "test-secret"

// fakeMail implements web.MailService with canned responses.
type fakeMail struct {
	folders  []*model.Mailbox
	emails   []model.EMail
	failWith error
}

func (f *fakeMail) ListFolders(ctx context.Context, user model.Identity) ([]*model.Mailbox, error) {
	return f.folders, f.failWith
}

func (f *fakeMail) GetFolder(ctx context.Context, user model.Identity, name string) (*model.Mailbox, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &model.Mailbox{Name: name}, nil
}

func (f *fakeMail) CreateFolder(ctx context.Context, user model.Identity, name string) error {
	return f.failWith
}

func (f *fakeMail) DeleteFolder(ctx context.Context, user model.Identity, name string) error {
	return f.failWith
}

func (f *fakeMail) ListMessages(ctx context.Context, user model.Identity, folder string) ([]model.EMail, error) {
	return f.emails, f.failWith
}

func (f *fakeMail) GetMessage(ctx context.Context, user model.Identity, folder string, id int) (*model.EMail, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, e := range f.emails {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, &imap.Fault{Kind: imap.FaultProtocol, Message: "no such message"}
}

func newTestServer(t *testing.T, mail *fakeMail) *httptest.Server {
	t.Helper()

	srv := web.NewServer(web.Configuration{
		Posts:     testutil.NewTestStore(t),
		Mail:      mail,
		JWTSecret: testSecret,
		UploadDir: t.TempDir(),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func bearerToken(t *testing.T, email string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestPostsRequireAuthForWrite(t *testing.T) {
	ts := newTestServer(t, &fakeMail{})

	resp, _ := doRequest(t, ts, http.MethodPost, "/api/v1/posts", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t, &fakeMail{})
	token := bearerToken(t, "author@example.com")

	resp, body := doRequest(t, ts, http.MethodPost, "/api/v1/posts", token,
		`{"title":"First Post","content":"hello","published":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var created model.Post
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "first-post", created.Slug)
	assert.Equal(t, "author@example.com", created.Author)

	day := created.Date.UTC()
	postPath := fmt.Sprintf("/api/v1/posts/%d/%d/%d/%s",
		day.Year(), int(day.Month()), day.Day(), created.Slug)

	// Readable without a token because it is published.
	resp, body = doRequest(t, ts, http.MethodGet, postPath, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	// Duplicate title on the same day conflicts.
	resp, _ = doRequest(t, ts, http.MethodPost, "/api/v1/posts", token,
		`{"title":"First Post"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Edit, then verify the edit took.
	resp, _ = doRequest(t, ts, http.MethodPatch, postPath, token, `{"content":"edited"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, ts, http.MethodGet, postPath, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched model.Post
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, "edited", fetched.Content)

	// Delete, then the post is gone.
	resp, _ = doRequest(t, ts, http.MethodDelete, postPath, token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodGet, postPath, "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListPostsVisibility(t *testing.T) {
	ts := newTestServer(t, &fakeMail{})
	token := bearerToken(t, "author@example.com")

	for _, payload := range []string{
		`{"title":"draft","published":false}`,
		`{"title":"live","published":true}`,
	} {
		resp, body := doRequest(t, ts, http.MethodPost, "/api/v1/posts", token, payload)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}

	var page struct {
		Total int          `json:"total"`
		Data  []model.Post `json:"data"`
	}

	resp, body := doRequest(t, ts, http.MethodGet, "/api/v1/posts", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "live", page.Data[0].Title)

	resp, body = doRequest(t, ts, http.MethodGet, "/api/v1/posts", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 2, page.Total)
}

func TestListFolders(t *testing.T) {
	mail := &fakeMail{folders: []*model.Mailbox{
		{Name: "INBOX", Separator: ".", Children: []*model.Mailbox{{Name: "Sent"}}},
	}}
	ts := newTestServer(t, mail)
	token := bearerToken(t, "user@example.com")

	resp, body := doRequest(t, ts, http.MethodGet, "/api/v1/folders", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var folders []model.Mailbox
	require.NoError(t, json.Unmarshal(body, &folders))
	require.Len(t, folders, 1)
	assert.Equal(t, "INBOX", folders[0].Name)
	require.Len(t, folders[0].Children, 1)
}

func TestFoldersRequireAuth(t *testing.T) {
	ts := newTestServer(t, &fakeMail{})

	resp, _ := doRequest(t, ts, http.MethodGet, "/api/v1/folders", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodGet, "/api/v1/folders", "Bearer bogus", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMailFaultMapping(t *testing.T) {
	cases := []struct {
		name   string
		fault  *imap.Fault
		status int
	}{
		{"auth", &imap.Fault{Kind: imap.FaultAuth, Message: "rejected"}, http.StatusForbidden},
		{"folder", &imap.Fault{Kind: imap.FaultFolderNotFound, Message: "gone"}, http.StatusConflict},
		{"protocol", &imap.Fault{Kind: imap.FaultProtocol, Message: "garbled"}, http.StatusConflict},
		{"connection", &imap.Fault{Kind: imap.FaultConnection, Message: "down"}, http.StatusBadGateway},
	}

	token := bearerToken(t, "user@example.com")
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeMail{failWith: tc.fault})

			resp, _ := doRequest(t, ts, http.MethodGet, "/api/v1/folders", token, "")
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestListMessages(t *testing.T) {
	mail := &fakeMail{emails: []model.EMail{
		{ID: 1, Subject: "one"},
		{ID: 2, Subject: "two"},
	}}
	ts := newTestServer(t, mail)
	token := bearerToken(t, "user@example.com")

	resp, body := doRequest(t, ts, http.MethodGet, "/api/v1/folders/INBOX", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var emails []model.EMail
	require.NoError(t, json.Unmarshal(body, &emails))
	require.Len(t, emails, 2)
	assert.Equal(t, "one", emails[0].Subject)
}

func TestGetMessage(t *testing.T) {
	mail := &fakeMail{emails: []model.EMail{{ID: 1, Subject: "only"}}}
	ts := newTestServer(t, mail)
	token := bearerToken(t, "user@example.com")

	resp, body := doRequest(t, ts, http.MethodGet, "/api/v1/folders/INBOX/1", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var email model.EMail
	require.NoError(t, json.Unmarshal(body, &email))
	assert.Equal(t, "only", email.Subject)

	resp, _ = doRequest(t, ts, http.MethodGet, "/api/v1/folders/INBOX/0", token, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodGet, "/api/v1/folders/INBOX/9", token, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateFolderValidation(t *testing.T) {
	ts := newTestServer(t, &fakeMail{})
	token := bearerToken(t, "user@example.com")

	resp, _ := doRequest(t, ts, http.MethodPost, "/api/v1/folders", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doRequest(t, ts, http.MethodPost, "/api/v1/folders", token, `{"name":"Projects"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
