// Package testserver runs the full HTTP surface over an in-memory database
// with a mocked phone.
package testserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/rpggio/calldesk/internal/mcp"
	"github.com/rpggio/calldesk/internal/repository/mocks"
	"github.com/rpggio/calldesk/internal/sqlite"
	"github.com/rpggio/calldesk/internal/sqlite/sqlitetest"
	"github.com/rpggio/calldesk/internal/transport"
	"go.uber.org/zap/zaptest"
)

type Options struct {
	Token string
	Call  call.Options
}

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Contacts *contact.Service
	Tracker  *call.Tracker
	Device   *mocks.Device
	State    *mocks.CallStateProbe
	List     *mocks.CallListProbe
	Phone    *mocks.DeviceInspector
	Token    string
}

func New(t *testing.T, opts Options) *TestServer {
	t.Helper()
	logger := zaptest.NewLogger(t)

	db := sqlitetest.NewDB(t)
	contacts := contact.NewService(sqlite.NewContactRepository(db), logger)

	ts := &TestServer{
		DB:       db,
		Contacts: contacts,
		Device:   &mocks.Device{},
		State:    &mocks.CallStateProbe{},
		List:     &mocks.CallListProbe{},
		Phone:    &mocks.DeviceInspector{},
		Token:    opts.Token,
	}
	ts.Tracker = call.NewTracker(call.NewSession(), ts.Device, ts.State, ts.List, contacts, opts.Call, logger)

	inspector := call.NewInspector(ts.Phone, time.Second)

	mcpServer := mcp.NewServer(mcp.Config{Contacts: contacts, Calls: ts.Tracker, Device: inspector, Logger: logger})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	ts.Server = httptest.NewServer(transport.NewServer(transport.Options{
		Contacts: contacts,
		Calls:    ts.Tracker,
		Device:   inspector,
		MCP:      mcpHandler,
		APIToken: opts.Token,
		Logger:   logger,
	}))

	t.Cleanup(func() {
		ts.Server.Close()
	})
	return ts
}

// Do sends a request with the configured bearer token.
func (ts *TestServer) Do(req *http.Request) (*http.Response, error) {
	if ts.Token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+ts.Token)
	}
	return ts.Server.Client().Do(req)
}
