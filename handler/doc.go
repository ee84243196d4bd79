// Package handler turns typed functions into http.HandlerFuncs.
//
// A HandlerFunc receives a Context and a request value filled by binders,
// and returns a Response. Errors from binders and from rendering go to a
// single ErrorHandler, which classifies them and writes a JSON body.
//
//	type listRequest struct {
//		Scope string `query:"scope"`
//	}
//
//	list := func(ctx handler.Context, req listRequest) handler.Response {
//		items, err := svc.List(ctx, req.Scope)
//		if err != nil {
//			return handler.Error(err)
//		}
//		return handler.JSON(map[string]any{"items": items})
//	}
//
//	r.Get("/items", handler.Wrap(list,
//		handler.WithBinders[handler.Context, listRequest](binder.Query()),
//		handler.WithErrorHandler[handler.Context, listRequest](handler.NewErrorHandler(log)),
//	))
//
// Stream responses write server-sent events through pkg/sse.
package handler
