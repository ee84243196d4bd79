package tasks

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/auditoria/auditoria/handler"
	"github.com/auditoria/auditoria/pkg/binder"
	"github.com/auditoria/auditoria/pkg/taskrecords"
)

// Querier answers filtered, paginated task-record queries.
type Querier interface {
	Query(ctx context.Context, f taskrecords.Filter, page int) (taskrecords.Page, error)
}

type Service struct {
	querier      Querier
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

func NewService(querier Querier, opts ...Option) *Service {
	s := &Service{querier: querier, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.logger,
		handler.WithClassifier(classify),
		handler.WithBody(handler.MessageBody),
	)
	return s
}

const fetchFailedMessage = "Error fetching tasks records"

func classify(err error) (handler.ErrorInfo, bool) {
	var upstream *taskrecords.UpstreamFetchError
	switch {
	case errors.Is(err, taskrecords.ErrInvalidPage):
		return handler.ErrorInfo{StatusCode: http.StatusBadRequest, Message: err.Error()}, true
	case errors.As(err, &upstream):
		msg := upstream.Message
		if msg == "" {
			msg = fetchFailedMessage
		}
		return handler.ErrorInfo{StatusCode: http.StatusInternalServerError, Message: msg}, true
	}
	return handler.ErrorInfo{}, false
}

// Handle returns the router to mount under /tasks-records.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Get("/", handler.Wrap(s.search,
		handler.WithBinders[handler.Context, searchRequest](binder.Query()),
		handler.WithErrorHandler[handler.Context, searchRequest](s.errorHandler),
	))
	return r
}

type searchRequest struct {
	Page     string `query:"page"`
	UUID     string `query:"uuid"`
	FileName string `query:"file_name"`
	Status   string `query:"status"`
	User     string `query:"user"`
	Campaign string `query:"campaign"`
	Search   string `query:"search"`
}

func (r searchRequest) filter() taskrecords.Filter {
	return taskrecords.Filter{
		UUID:         r.UUID,
		FileName:     r.FileName,
		Status:       r.Status,
		User:         r.User,
		Campaign:     r.Campaign,
		GlobalSearch: r.Search,
	}
}

func (s *Service) search(ctx handler.Context, req searchRequest) handler.Response {
	page, err := taskrecords.ParsePage(req.Page)
	if err != nil {
		return handler.Error(err)
	}
	result, err := s.querier.Query(ctx, req.filter(), page)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(result)
}
