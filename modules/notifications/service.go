package notifications

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auditoria/auditoria/handler"
	"github.com/auditoria/auditoria/pkg/binder"
	"github.com/auditoria/auditoria/pkg/clientip"
	"github.com/auditoria/auditoria/pkg/jwt"
	notify "github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/ratelimiter"
	"github.com/auditoria/auditoria/pkg/webhook"
)

// Engine is the notification pipeline the routes drive.
type Engine interface {
	Ingest(ctx context.Context, p notify.Payload) (notify.Notification, error)
	AddGlobal(ctx context.Context, p notify.Payload) (notify.Notification, error)
	List(ctx context.Context, target notify.Target) ([]notify.Notification, error)
	Delete(ctx context.Context, target notify.Target, id string) error
	PurgeGlobal(ctx context.Context) error
}

// Streamer bridges a target's channel to a client stream.
type Streamer interface {
	Stream(ctx context.Context, target notify.Target, w notify.StreamWriter) error
}

// Config holds the HTTP-facing notification settings.
type Config struct {
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	WebhookMaxAge time.Duration `env:"WEBHOOK_MAX_AGE" envDefault:"5m"`
	AdminRole     string        `env:"JWT_ADMIN_ROLE" envDefault:"admin"`
	TokenCookie   string        `env:"JWT_COOKIE" envDefault:"token"`
}

type Service struct {
	cfg          Config
	engine       Engine
	streamer     Streamer
	tokens       *jwt.Service
	limiter      *ratelimiter.Window
	logger       *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTokens enables identity on the user routes and the admin guard.
// Without it every caller is anonymous and admin routes answer 403.
func WithTokens(tokens *jwt.Service) Option {
	return func(s *Service) { s.tokens = tokens }
}

// WithWebhookLimiter throttles the inbound webhook per client address.
func WithWebhookLimiter(w *ratelimiter.Window) Option {
	return func(s *Service) { s.limiter = w }
}

func NewService(cfg Config, engine Engine, streamer Streamer, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		engine:   engine,
		streamer: streamer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.AdminRole == "" {
		s.cfg.AdminRole = "admin"
	}
	s.errorHandler = handler.NewErrorHandler(s.logger, handler.WithClassifier(classify))
	return s
}

// classify maps pipeline errors to their HTTP answers.
func classify(err error) (handler.ErrorInfo, bool) {
	var verr notify.ValidationError
	switch {
	case errors.As(err, &verr):
		return handler.ErrorInfo{
			StatusCode: http.StatusBadRequest,
			Message:    "Invalid notification payload",
			Details:    map[string][]string(verr),
		}, true
	case errors.Is(err, notify.ErrNotFound):
		return handler.ErrorInfo{StatusCode: http.StatusNotFound, Message: "Notification not found"}, true
	}
	return handler.ErrorInfo{}, false
}

// Handle returns the router to mount under /notifications.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(ratelimiter.Middleware(s.limiter, clientip.FromRequest, ratelimiter.WithLogger(s.logger)))
		}
		r.Use(webhook.VerifyMiddleware(s.cfg.WebhookSecret, webhook.WithMaxAge(s.cfg.WebhookMaxAge)))
		r.Post("/webhook", wrap(s.receiveWebhook, s.errorHandler, bindPayload))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.identify(true))
		r.Get("/", wrap(s.list, s.errorHandler, binder.Query()))
		r.Get("/events", wrap(s.events, s.errorHandler, binder.Query()))
	})

	r.Group(func(r chi.Router) {
		r.Use(s.identify(false))
		r.Delete("/{id}", handler.Wrap(s.delete,
			handler.WithBinders[handler.Context, deleteRequest](binder.Path(chi.URLParam)),
			handler.WithErrorHandler[handler.Context, deleteRequest](s.errorHandler),
			handler.WithDecorators[handler.Context, deleteRequest](requireRecipient[deleteRequest]),
		))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.identify(true), jwt.RequireRole(s.cfg.AdminRole, nil))
		r.Get("/", wrap(s.adminList, s.errorHandler))
		r.Post("/", wrap(s.adminAdd, s.errorHandler, bindPayload))
		r.Delete("/", wrap(s.adminDelete, s.errorHandler, binder.Query()))
	})

	return r
}

// identify attaches token claims. With optional set, requests without a
// token pass as anonymous.
func (s *Service) identify(optional bool) func(http.Handler) http.Handler {
	if s.tokens == nil {
		if optional {
			return func(next http.Handler) http.Handler { return next }
		}
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				jwt.WriteJSONError(w, r, http.StatusUnauthorized, jwt.ErrMissingToken)
			})
		}
	}
	return jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service: s.tokens,
		Extractors: []jwt.TokenExtractorFunc{
			jwt.BearerTokenExtractor,
			jwt.CookieTokenExtractor(s.cfg.TokenCookie),
			// EventSource cannot set headers
			jwt.QueryTokenExtractor("token"),
		},
		Optional: optional,
	})
}

func wrap[R any](h handler.HandlerFunc[handler.Context, R], eh handler.ErrorHandler[handler.Context], binders ...handler.Bind) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](binders...),
		handler.WithErrorHandler[handler.Context, R](eh),
	)
}

// requireRecipient rejects callers without a recipient id and callers whose
// id addresses the global list.
func requireRecipient[R any](next handler.HandlerFunc[handler.Context, R]) handler.HandlerFunc[handler.Context, R] {
	return func(ctx handler.Context, req R) handler.Response {
		switch id := jwt.RecipientID(ctx); {
		case id == "":
			return handler.Error(handler.ErrUnauthorized)
		case notify.ReservedRecipient(id):
			return handler.Error(handler.ErrForbidden)
		}
		return next(ctx, req)
	}
}

const maxPayloadSize = 1 << 20

func bindPayload(r *http.Request, v any) error {
	p, ok := v.(*notify.Payload)
	if !ok {
		return binder.ErrNotApplicable
	}
	decoded, err := notify.DecodePayload(io.LimitReader(r.Body, maxPayloadSize))
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}
