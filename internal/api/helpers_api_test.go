package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YouWantToPinch/dashboard-api/internal/auth"
	"github.com/YouWantToPinch/dashboard-api/internal/blob"
	pt "github.com/YouWantToPinch/dashboard-api/internal/dashtest"
	"github.com/YouWantToPinch/dashboard-api/internal/realtime"
	"github.com/YouWantToPinch/dashboard-api/internal/resource"
	"github.com/YouWantToPinch/dashboard-api/internal/store/storage"
)

const (
	testSecret = "test-secret"

	nameAlice  = "Alice"
	emailAlice = "alice@example.com"
	nameBob    = "Bob"
	emailBob   = "bob@example.com"
	password1  = "hunter22"
	password2  = "correct-horse"
)

// ---------------
// HELPER FUNCS
// ---------------

type APITestClient struct {
	Mux       http.Handler
	W         *httptest.ResponseRecorder
	Resources map[string]any
	Hub       *realtime.Hub
	testState *testing.T
}

// newTestClient serves the full mux over h with a running notifier.
func newTestClient(t *testing.T, h *storage.Handle) *APITestClient {
	t.Helper()

	avatars, err := blob.NewAvatars(t.TempDir(), 5<<20)
	require.NoError(t, err)

	logger := slog.Default()
	outbox := resource.NewOutbox(64, logger)
	hub := realtime.NewHub(logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = realtime.NewDispatcher(hub, outbox.Changes(), logger).Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		hub.Close()
	})

	cfg := NewAPIConfig(Options{
		Store:    h,
		Sink:     outbox,
		Tokens:   auth.NewIssuer(testSecret, time.Hour),
		Hub:      hub,
		Avatars:  avatars,
		Platform: "dev",
		Logger:   logger,
	})

	return &APITestClient{
		Mux:       SetupMux(cfg),
		Resources: map[string]any{},
		Hub:       hub,
		testState: t,
	}
}

func (c *APITestClient) GetJSONField(field string) (any, error) {
	return pt.GetJSONField(c.W, field)
}

func (c *APITestClient) GetJSONFieldAsString(field string) (string, error) {
	fieldRetrieved, err := pt.GetJSONPath(c.W, field)
	if err != nil {
		return "", err
	}
	if val, ok := fieldRetrieved.(string); ok {
		return val, nil
	}
	return "", fmt.Errorf("field retrieved from response was not of type string")
}

func (c *APITestClient) GetJSONFieldAsInt64(field string) (int64, error) {
	fieldRetrieved, err := pt.GetJSONPath(c.W, field)
	if err != nil {
		return 0, err
	}
	if val, ok := fieldRetrieved.(int64); ok {
		return val, nil
	}
	return 0, fmt.Errorf("field retrieved from response was not of type int64")
}

// MustString fails the test when path is missing or not a string.
func (c *APITestClient) MustString(path string) string {
	c.testState.Helper()
	val, err := c.GetJSONFieldAsString(path)
	require.NoError(c.testState, err, "body: %s", c.W.Body.String())
	return val
}

// Request records a new request, saves the response to a new recorder for reference,
// and calls an assert check against the response status code before then returning the request.
func (c *APITestClient) Request(req *http.Request, expectedCode int) *http.Request {
	c.W = pt.Call(c.Mux, req)
	if expectedCode != 0 {
		assert.Equal(c.testState, expectedCode, c.W.Code, "%s %s: %s", req.Method, req.URL.Path, c.W.Body.String())
	}
	return req
}

func (c *APITestClient) GetResource(name string) any {
	if v, ok := c.Resources[name]; ok {
		return v
	}
	return nil
}

func (c *APITestClient) SaveResourceFromJSON(field string, name string) {
	jsonObject, _ := pt.GetJSONPath(c.W, field)
	c.Resources[name] = jsonObject
	slog.Debug(fmt.Sprintf("Saved resource %s at: %v (type: %T)", name, c.Resources[name], c.Resources[name]))
}

func (c *APITestClient) equalsResourceAt(expected any, resourceName string) func() bool {
	return func() bool {
		return expected == c.Resources[resourceName]
	}
}

// register creates an account and returns its token and id.
func (c *APITestClient) register(name, email, password string) (token, id string) {
	c.testState.Helper()
	c.Request(pt.Register(name, email, password), http.StatusCreated)
	return c.MustString("token"), c.MustString("user.id")
}

type httpTestCase struct {
	// Optional name for subtest
	Name string
	// Path saved from making the request
	Path string
	// Request to make; use pt.MakeRequest, or a premade wrapper that uses it
	RequestFunc func() *http.Request
	// JSON values, found at the given dotted paths of the response body, to assign to given names
	SaveFields map[string]string
	// Status code that this subtest expects to receive in response to its Request
	Expected int
	// Further expectations beyond status code, typically surrounding resources
	Checks []func() bool
}

func (tc *httpTestCase) Handle(t *testing.T, client *APITestClient) {
	t.Helper()
	client.testState = t
	tc.Path = client.Request(tc.RequestFunc(), tc.Expected).URL.Path
	for key, val := range tc.SaveFields {
		client.SaveResourceFromJSON(key, val)
	}
	for _, check := range tc.Checks {
		assert.True(t, check())
	}
}

func (tc *httpTestCase) getName() string {
	if tc.Name != "" {
		return tc.Name
	}
	return tc.Path
}
