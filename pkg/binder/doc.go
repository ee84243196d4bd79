// Package binder fills request structs from query strings and route
// parameters for handler.Wrap.
//
//	type deleteRequest struct {
//		ID    string `path:"id"`
//		Scope string `query:"scope"`
//	}
//
//	r.Delete("/notifications/{id}", handler.Wrap(del,
//		handler.WithBinders[handler.Context, deleteRequest](
//			binder.Path(chi.URLParam),
//			binder.Query(),
//		),
//	))
//
// Only tagged fields are bound. Supported field types are strings, integers,
// booleans, string slices (comma separated), pointers to those, and types
// implementing encoding.TextUnmarshaler.
package binder
