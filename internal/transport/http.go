package transport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"go.uber.org/zap"
)

// ContactService is the contact store as seen by the HTTP surface.
type ContactService interface {
	List(ctx context.Context) ([]contact.Contact, error)
	Search(ctx context.Context, opts contact.SearchOptions) ([]contact.Contact, error)
	Get(ctx context.Context, id string) (*contact.Contact, error)
	Create(ctx context.Context, req contact.CreateRequest) (*contact.Contact, error)
	Update(ctx context.Context, id string, patch contact.Patch) (*contact.Contact, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	QueueImport(rows []contact.CreateRequest) contact.ImportJob
	ImportStatus(id string) (contact.ImportJob, error)
}

// CallService is the call tracker as seen by the HTTP surface.
type CallService interface {
	StartCall(ctx context.Context, req call.StartRequest) (*call.StartResult, error)
	Reconcile(ctx context.Context) (*call.Status, error)
	EndCall(ctx context.Context, req call.EndRequest) (*call.EndResult, error)
	HangUp(ctx context.Context, req call.HangUpRequest) (*call.EndResult, error)
}

// DeviceService reports phone health.
type DeviceService interface {
	Status(ctx context.Context) (*call.DeviceStatus, error)
	Battery(ctx context.Context) (*call.BatteryStatus, error)
}

// Options wires the router.
type Options struct {
	Contacts ContactService
	Calls    CallService
	Device   DeviceService
	// MCP, when non-nil, is mounted at /mcp.
	MCP      http.Handler
	APIToken string
	Logger   *zap.Logger
}

// Server wires HTTP handlers.
type Server struct {
	contacts ContactService
	calls    CallService
	device   DeviceService
	logger   *zap.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{contacts: opts.Contacts, calls: opts.Calls, device: opts.Device, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.APIToken != "" {
			r.Use(TokenMiddleware(opts.APIToken))
		}

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", srv.listContacts)
			r.Post("/", srv.createContact)
			r.Delete("/all", srv.deleteAllContacts)
			r.Post("/import", srv.importContacts)
			r.Get("/import/{jobID}", srv.importStatus)
			r.Get("/export", srv.exportContacts)
			r.Get("/{id}", srv.getContact)
			r.Patch("/{id}", srv.updateContact)
			r.Delete("/{id}", srv.deleteContact)
		})

		r.Post("/call", srv.startCall)
		r.Post("/call/end", srv.endCall)
		r.Get("/call/status", srv.callStatus)
		r.Post("/adb/hangup", srv.hangUp)
		if opts.Device != nil {
			r.Get("/adb/status", srv.deviceStatus)
			r.Get("/adb/battery", srv.batteryStatus)
		}

		if opts.MCP != nil {
			r.Handle("/mcp", opts.MCP)
			r.Handle("/mcp/*", opts.MCP)
		}
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
