// Package sse writes text/event-stream responses.
//
//	w, err := sse.NewWriter(rw)
//	if err != nil {
//		return err
//	}
//	_ = w.Event("connected", []byte("{}"))
//	_ = w.Comment("ping")
package sse
