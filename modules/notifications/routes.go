package notifications

import (
	"context"
	"net/http"

	"github.com/auditoria/auditoria/handler"
	"github.com/auditoria/auditoria/pkg/jwt"
	notify "github.com/auditoria/auditoria/pkg/notifications"
	"github.com/auditoria/auditoria/pkg/sse"
)

const scopeGlobal = "global"

type scopeRequest struct {
	Scope string `query:"scope"`
}

type deleteRequest struct {
	ID string `path:"id"`
}

type adminDeleteRequest struct {
	ID string `query:"id"`
}

type listResponse struct {
	Notifications []notify.Notification `json:"notifications"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// target resolves the caller's list: the recipient from the token, or the
// global list when anonymous or when scope=global is asked for.
func target(ctx context.Context, scope string) notify.Target {
	id := jwt.RecipientID(ctx)
	if scope == scopeGlobal || notify.ReservedRecipient(id) {
		return notify.Global
	}
	return notify.Recipient(id)
}

func (s *Service) receiveWebhook(ctx handler.Context, p notify.Payload) handler.Response {
	n, err := s.engine.Ingest(ctx, p)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(n, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Service) events(ctx handler.Context, req scopeRequest) handler.Response {
	t := target(ctx, req.Scope)
	return handler.Stream(func(ctx context.Context, w *sse.Writer) error {
		return s.streamer.Stream(ctx, t, w)
	})
}

func (s *Service) list(ctx handler.Context, req scopeRequest) handler.Response {
	items, err := s.engine.List(ctx, target(ctx, req.Scope))
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(listResponse{Notifications: items})
}

// delete runs behind requireRecipient.
func (s *Service) delete(ctx handler.Context, req deleteRequest) handler.Response {
	if err := s.engine.Delete(ctx, notify.Recipient(jwt.RecipientID(ctx)), req.ID); err != nil {
		return handler.Error(err)
	}
	return handler.JSON(successResponse{Success: true})
}

func (s *Service) adminList(ctx handler.Context, _ struct{}) handler.Response {
	items, err := s.engine.List(ctx, notify.Global)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(listResponse{Notifications: items})
}

func (s *Service) adminAdd(ctx handler.Context, p notify.Payload) handler.Response {
	n, err := s.engine.AddGlobal(ctx, p)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(n, handler.WithJSONStatus(http.StatusCreated))
}

// adminDelete purges the global list, or removes one entry when id is set.
func (s *Service) adminDelete(ctx handler.Context, req adminDeleteRequest) handler.Response {
	var err error
	if req.ID == "" {
		err = s.engine.PurgeGlobal(ctx)
	} else {
		err = s.engine.Delete(ctx, notify.Global, req.ID)
	}
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(successResponse{Success: true})
}
