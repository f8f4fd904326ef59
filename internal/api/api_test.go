package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pt "github.com/YouWantToPinch/dashboard-api/internal/dashtest"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

// smallest valid PNG header plus IHDR chunk
var pngHeader = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89,
}

// ---------------
// TESTING
// ---------------

// Should properly make, count, and delete users
func Test_MakeAndResetUsers(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())

	cases := []httpTestCase{
		{
			Name:        "reset",
			RequestFunc: pt.ResetStore,
			Expected:    http.StatusOK,
		},
		{
			Name: "register first user",
			RequestFunc: func() *http.Request {
				return pt.Register(nameAlice, emailAlice, password1)
			},
			Expected: http.StatusCreated,
		},
		{
			Name: "register second user",
			RequestFunc: func() *http.Request {
				return pt.Register(nameBob, emailBob, password2)
			},
			Expected: http.StatusCreated,
		},
		{
			Name:        "count is two",
			RequestFunc: pt.GetUserCount,
			SaveFields:  map[string]string{"count": "count"},
			Expected:    http.StatusOK,
			Checks:      []func() bool{c.equalsResourceAt(int64(2), "count")},
		},
		{
			Name:        "reset again",
			RequestFunc: pt.ResetStore,
			Expected:    http.StatusOK,
		},
		{
			Name:        "count is zero",
			RequestFunc: pt.GetUserCount,
			SaveFields:  map[string]string{"count": "count"},
			Expected:    http.StatusOK,
			Checks:      []func() bool{c.equalsResourceAt(int64(0), "count")},
		},
	}

	for _, tc := range cases {
		t.Run(tc.getName(), func(t *testing.T) {
			tc.Handle(t, c)
		})
	}
}

func Test_AdminRoutesRequireDev(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	c.Mux = SetupMux(NewAPIConfig(Options{Store: storage.NewMemory(), Platform: "production"}))

	c.Request(pt.ResetStore(), http.StatusForbidden)
	c.Request(pt.GetUserCount(), http.StatusForbidden)
}

func Test_AuthFlow(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())

	token, id := c.register(nameAlice, "  Alice@Example.com ", password1)
	assert.Equal(t, emailAlice, c.MustString("user.email"))
	assert.Equal(t, "light", c.MustString("user.theme"))
	_, err := pt.GetJSONPath(c.W, "user.passwordHash")
	assert.Error(t, err)

	// duplicate e-mail
	c.Request(pt.Register("Alice Again", emailAlice, password1), http.StatusBadRequest)
	assert.Equal(t, "User already exists with this email", c.MustString("message"))

	// bad credentials
	c.Request(pt.Login(emailAlice, "wrong-password"), http.StatusUnauthorized)
	assert.Equal(t, "Invalid credentials", c.MustString("message"))
	c.Request(pt.Login("nobody@example.com", password1), http.StatusUnauthorized)
	assert.Equal(t, "Invalid credentials", c.MustString("message"))

	// good credentials
	c.Request(pt.Login(emailAlice, password1), http.StatusOK)
	assert.Equal(t, id, c.MustString("user.id"))
	assert.NotEmpty(t, c.MustString("token"))

	// me
	c.Request(pt.GetMe(token), http.StatusOK)
	assert.Equal(t, nameAlice, c.MustString("user.name"))
	prefs, err := pt.GetJSONPath(c.W, "user.preferences")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, prefs)
	_, err = pt.GetJSONPath(c.W, "user.passwordHash")
	assert.Error(t, err)

	// profile
	c.Request(pt.UpdateProfile(token, map[string]any{"theme": "purple"}), http.StatusBadRequest)
	assert.Equal(t, "theme must be one of: light, dark", c.MustString("message"))
	c.Request(pt.UpdateProfile(token, map[string]any{
		"theme":       "dark",
		"preferences": map[string]any{"compact": true},
	}), http.StatusOK)
	assert.Equal(t, "dark", c.MustString("user.theme"))
	assert.Equal(t, nameAlice, c.MustString("user.name"))
	compact, err := pt.GetJSONPath(c.W, "user.preferences.compact")
	require.NoError(t, err)
	assert.Equal(t, true, compact)

	// change password
	c.Request(pt.ChangePassword(token, "wrong-password", "brand-new-pw"), http.StatusUnauthorized)
	assert.Equal(t, "Current password is incorrect", c.MustString("message"))
	c.Request(pt.ChangePassword(token, password1, "short"), http.StatusBadRequest)
	assert.Equal(t, "newPassword must be at least 6 characters", c.MustString("message"))
	c.Request(pt.ChangePassword(token, password1, "brand-new-pw"), http.StatusOK)
	assert.Equal(t, "Password changed successfully", c.MustString("message"))

	c.Request(pt.Login(emailAlice, password1), http.StatusUnauthorized)
	c.Request(pt.Login(emailAlice, "brand-new-pw"), http.StatusOK)
}

func Test_RegisterListsEveryInvalidField(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())

	c.Request(pt.Register("A", "not-an-email", "123"), http.StatusBadRequest)
	assert.Equal(t,
		"name must be at least 2 characters, Please provide a valid email, password must be at least 6 characters",
		c.MustString("message"))

	body, err := pt.DecodeBody(c.W)
	require.NoError(t, err)
	assert.Equal(t, false, body["success"])
	assert.Len(t, body["errors"], 3)

	c.Request(pt.MakeRequest(http.MethodPost, "/api/auth/register", "", nil), http.StatusBadRequest)
}

func Test_RoutesRequireValidToken(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	for _, kind := range []string{"tasks", "notes", "bookmarks", "events", "widgets"} {
		c.Request(pt.List("", kind, nil), http.StatusUnauthorized)
		c.Request(pt.List("garbage.token.value", kind, nil), http.StatusUnauthorized)
	}
	c.Request(pt.GetMe(""), http.StatusUnauthorized)
	assert.Equal(t, "Not authorized, token failed", c.MustString("message"))

	// a token outliving its user is rejected
	c.Request(pt.ResetStore(), http.StatusOK)
	c.Request(pt.GetMe(token), http.StatusUnauthorized)
}

// A created task is listed and fetched unchanged.
func Test_CreateListGetTask(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, userID := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "tasks", map[string]any{"title": "Write report", "priority": "high"}), http.StatusCreated)
	taskID := c.MustString("task.id")
	assert.Equal(t, userID, c.MustString("task.owner"))
	assert.Equal(t, "todo", c.MustString("task.status"))
	created, err := pt.GetJSONPath(c.W, "task")
	require.NoError(t, err)

	c.Request(pt.List(token, "tasks", nil), http.StatusOK)
	count, err := c.GetJSONFieldAsInt64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, taskID, c.MustString("tasks.0.id"))

	c.Request(pt.Get(token, "tasks", taskID), http.StatusOK)
	fetched, err := pt.GetJSONPath(c.W, "task")
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

// A task without a title is rejected and nothing is stored.
func Test_CreateTaskWithoutTitle(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "tasks", map[string]any{"description": "no title", "status": "later"}), http.StatusBadRequest)
	body, err := pt.DecodeBody(c.W)
	require.NoError(t, err)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{
		map[string]any{"field": "title", "message": "title is required"},
		map[string]any{"field": "status", "message": "status must be one of: todo, in-progress, completed"},
	}, body["errors"])

	c.Request(pt.List(token, "tasks", nil), http.StatusOK)
	count, err := c.GetJSONFieldAsInt64("count")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

// Another user's note is forbidden, not hidden.
func Test_ForeignNoteIsForbidden(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	alice, _ := c.register(nameAlice, emailAlice, password1)
	bob, _ := c.register(nameBob, emailBob, password2)

	c.Request(pt.Create(alice, "notes", map[string]any{"title": "diary", "content": "secret"}), http.StatusCreated)
	noteID := c.MustString("note.id")

	c.Request(pt.Get(bob, "notes", noteID), http.StatusForbidden)
	assert.Equal(t, "Not authorized to access this note", c.MustString("message"))
	c.Request(pt.Update(bob, "notes", noteID, map[string]any{"title": "mine now"}), http.StatusForbidden)
	assert.Equal(t, "Not authorized to update this note", c.MustString("message"))
	c.Request(pt.Delete(bob, "notes", noteID), http.StatusForbidden)
	assert.Equal(t, "Not authorized to delete this note", c.MustString("message"))

	c.Request(pt.List(bob, "notes", nil), http.StatusOK)
	count, _ := c.GetJSONFieldAsInt64("count")
	assert.Equal(t, int64(0), count)

	c.Request(pt.Get(alice, "notes", noteID), http.StatusOK)
	assert.Equal(t, "diary", c.MustString("note.title"))
}

// Deleting twice answers 404 the second time.
func Test_DeleteTwice(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "bookmarks", map[string]any{"title": "Go", "url": "https://go.dev"}), http.StatusCreated)
	id := c.MustString("bookmark.id")
	assert.Equal(t, "https://go.dev/favicon.ico", c.MustString("bookmark.favicon"))

	c.Request(pt.Delete(token, "bookmarks", id), http.StatusOK)
	assert.Equal(t, "Bookmark deleted successfully", c.MustString("message"))
	c.Request(pt.Delete(token, "bookmarks", id), http.StatusNotFound)
	assert.Equal(t, "Bookmark not found", c.MustString("message"))
	c.Request(pt.Get(token, "bookmarks", id), http.StatusNotFound)

	// malformed ids are simply unknown
	c.Request(pt.Get(token, "bookmarks", "not-an-id"), http.StatusNotFound)
}

// Batch layout applies owned ids and nulls the rest.
func Test_BatchUpdateWidgets(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	alice, _ := c.register(nameAlice, emailAlice, password1)
	bob, _ := c.register(nameBob, emailBob, password2)

	c.Request(pt.Create(alice, "widgets", map[string]any{"type": "tasks"}), http.StatusCreated)
	owned := c.MustString("widget.id")
	c.Request(pt.Create(bob, "widgets", map[string]any{"type": "clock"}), http.StatusCreated)
	foreign := c.MustString("widget.id")

	c.Request(pt.BatchUpdateWidgets(alice, []map[string]any{
		{"id": owned, "position": map[string]any{"x": 1, "y": 2}},
		{"id": foreign, "position": map[string]any{"x": 9, "y": 9}},
	}), http.StatusOK)

	x, err := pt.GetJSONPath(c.W, "widgets.0.position.x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), x)
	w, err := pt.GetJSONPath(c.W, "widgets.0.size.w")
	require.NoError(t, err)
	assert.Equal(t, int64(4), w)
	second, err := pt.GetJSONPath(c.W, "widgets.1")
	require.NoError(t, err)
	assert.Nil(t, second)

	c.Request(pt.Get(bob, "widgets", foreign), http.StatusOK)
	x, err = pt.GetJSONPath(c.W, "widget.position.x")
	require.NoError(t, err)
	assert.Equal(t, int64(0), x)
}

func Test_BodyCannotReassignOwnership(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	alice, aliceID := c.register(nameAlice, emailAlice, password1)
	bob, bobID := c.register(nameBob, emailBob, password2)

	c.Request(pt.Create(alice, "events", map[string]any{
		"title":     "standup",
		"startDate": "2025-10-02T09:00:00Z",
		"endDate":   "2025-10-02T09:15:00Z",
		"owner":     bobID,
	}), http.StatusCreated)
	eventID := c.MustString("event.id")
	assert.Equal(t, aliceID, c.MustString("event.owner"))

	c.Request(pt.Update(alice, "events", eventID, map[string]any{"owner": bobID, "id": bobID}), http.StatusOK)
	assert.Equal(t, aliceID, c.MustString("event.owner"))
	assert.Equal(t, eventID, c.MustString("event.id"))

	c.Request(pt.Get(bob, "events", eventID), http.StatusForbidden)
}

func Test_UpdateTimestamps(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "notes", map[string]any{"title": "t", "content": "c"}), http.StatusCreated)
	id := c.MustString("note.id")
	createdAt := c.MustString("note.createdAt")
	prev := c.MustString("note.updatedAt")

	for _, content := range []string{"one", "two", "three"} {
		c.Request(pt.Update(token, "notes", id, map[string]any{"content": content}), http.StatusOK)
		assert.Equal(t, createdAt, c.MustString("note.createdAt"))
		next := c.MustString("note.updatedAt")

		prevT, err := time.Parse(time.RFC3339Nano, prev)
		require.NoError(t, err)
		nextT, err := time.Parse(time.RFC3339Nano, next)
		require.NoError(t, err)
		assert.True(t, nextT.After(prevT), "%s should be after %s", next, prev)
		prev = next
	}
	assert.Equal(t, "t", c.MustString("note.title"))
}

func Test_ListFilters(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "notes", map[string]any{"title": "pinned", "content": "x", "isPinned": true}), http.StatusCreated)
	c.Request(pt.Create(token, "notes", map[string]any{"title": "plain", "content": "y"}), http.StatusCreated)

	c.Request(pt.List(token, "notes", url.Values{"isPinned": {"true"}}), http.StatusOK)
	count, _ := c.GetJSONFieldAsInt64("count")
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "pinned", c.MustString("notes.0.title"))

	c.Request(pt.List(token, "notes", url.Values{"isPinned": {"maybe"}}), http.StatusBadRequest)
	assert.Equal(t, "isPinned must be 'true' or 'false'", c.MustString("message"))

	c.Request(pt.List(token, "events", url.Values{"startDate": {"soon"}, "endDate": {"later"}}), http.StatusBadRequest)
}

func Test_InvalidJSONBody(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	req := pt.MakeRequest(http.MethodPost, "/api/tasks", token, nil)
	c.Request(req, http.StatusBadRequest)
	assert.Equal(t, "invalid request payload", c.MustString("message"))

	c.Request(pt.MakeRequest(http.MethodPost, "/api/tasks", token, []string{"not", "an", "object"}), http.StatusBadRequest)
}

func Test_AvatarUpload(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.UploadAvatar(token, "me.png", pngHeader), http.StatusOK)
	first := c.MustString("avatar")
	assert.Regexp(t, `^/uploads/avatars/avatar-[0-9a-f-]{36}\.png$`, first)

	c.Request(pt.MakeRequest(http.MethodGet, first, "", nil), http.StatusOK)
	assert.Equal(t, pngHeader, c.W.Body.Bytes())

	c.Request(pt.GetMe(token), http.StatusOK)
	assert.Equal(t, first, c.MustString("user.avatar"))

	// replacing removes the previous file
	c.Request(pt.UploadAvatar(token, "me2.png", pngHeader), http.StatusOK)
	second := c.MustString("avatar")
	assert.NotEqual(t, first, second)
	c.Request(pt.MakeRequest(http.MethodGet, first, "", nil), http.StatusNotFound)

	c.Request(pt.UploadAvatar(token, "notes.txt", []byte("just some text")), http.StatusBadRequest)
	c.Request(pt.MakeRequest(http.MethodPut, "/api/auth/avatar", token, map[string]any{}), http.StatusBadRequest)
	assert.Equal(t, "Please upload an image file", c.MustString("message"))
	c.Request(pt.UploadAvatar("", "me.png", pngHeader), http.StatusUnauthorized)
}

func Test_CORS(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())

	req := pt.MakeRequest(http.MethodOptions, "/api/tasks", "", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	c.Request(req, http.StatusNoContent)
	assert.Equal(t, "http://localhost:3000", c.W.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", c.W.Header().Get("Access-Control-Allow-Credentials"))

	req = pt.MakeRequest(http.MethodGet, "/api/health", "", nil)
	req.Header.Set("Origin", "https://evil.example")
	c.Request(req, http.StatusOK)
	assert.Empty(t, c.W.Header().Get("Access-Control-Allow-Origin"))
}

func Test_HealthAndBanner(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())

	c.Request(pt.MakeRequest(http.MethodGet, "/api/health", "", nil), http.StatusOK)
	assert.Equal(t, "ok", c.MustString("status"))
	assert.Equal(t, "Server is running", c.MustString("message"))

	c.Request(pt.MakeRequest(http.MethodGet, "/", "", nil), http.StatusOK)
	assert.Equal(t, "/api/tasks", c.MustString("endpoints.tasks"))

	c.Request(pt.MakeRequest(http.MethodGet, "/nope", "", nil), http.StatusNotFound)
}

func Test_ResponsesAreJSON(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.List(token, "widgets", nil), http.StatusOK)
	assert.Equal(t, "application/json", c.W.Header().Get("Content-Type"))

	var body struct {
		Success bool              `json:"success"`
		Count   int               `json:"count"`
		Widgets []json.RawMessage `json:"widgets"`
	}
	require.NoError(t, json.Unmarshal(c.W.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Widgets)
}

func Test_ProfileAlwaysCarriesPreferences(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	// session responses leave preferences out
	_, err := pt.GetJSONPath(c.W, "user.preferences")
	assert.Error(t, err)

	c.Request(pt.GetMe(token), http.StatusOK)
	assert.JSONEq(t, `{}`, rawAt(t, c, "user.preferences"))

	c.Request(pt.UpdateProfile(token, map[string]any{"name": "Alice B"}), http.StatusOK)
	assert.Equal(t, "Alice B", c.MustString("user.name"))
	assert.JSONEq(t, `{}`, rawAt(t, c, "user.preferences"))
}

func Test_QueryTokenOnlyOpensSockets(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.MakeRequest(http.MethodGet, "/api/auth/me?token="+token, "", nil), http.StatusUnauthorized)
	c.Request(pt.MakeRequest(http.MethodGet, "/api/tasks?token="+token, "", nil), http.StatusUnauthorized)
	c.Request(pt.GetMe(token), http.StatusOK)
}

func Test_EventEndBeforeStartIsAccepted(t *testing.T) {
	c := newTestClient(t, storage.NewMemory())
	token, _ := c.register(nameAlice, emailAlice, password1)

	c.Request(pt.Create(token, "events", map[string]any{
		"title":     "overnight deploy",
		"startDate": "2025-10-02T22:00:00Z",
		"endDate":   "2025-10-01T02:00:00Z",
	}), http.StatusCreated)
	id := c.MustString("event.id")
	assert.Equal(t, "2025-10-02T22:00:00Z", c.MustString("event.startDate"))
	assert.Equal(t, "2025-10-01T02:00:00Z", c.MustString("event.endDate"))

	c.Request(pt.Get(token, "events", id), http.StatusOK)
	assert.Equal(t, "2025-10-01T02:00:00Z", c.MustString("event.endDate"))
}

// rawAt re-encodes the value found at path in the last response.
func rawAt(t *testing.T, c *APITestClient, path string) string {
	t.Helper()
	v, err := pt.GetJSONPath(c.W, path)
	require.NoError(t, err, "body: %s", c.W.Body.String())
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
