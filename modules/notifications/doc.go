// Package notifications mounts the notification HTTP surface: the inbound
// webhook, the per-recipient event stream, the caller's list and the admin
// endpoints over the global list.
//
// Routes, relative to the mount point:
//
//	POST   /webhook        ingest a payload, 201 with the normalized notification
//	GET    /events         text/event-stream of the caller's notifications
//	GET    /               caller's list (?scope=global for the global list)
//	DELETE /{id}           remove one notification from the caller's list
//	GET    /admin          global list (admin role)
//	POST   /admin          add a global notification (admin role)
//	DELETE /admin[?id=X]   purge the global list or remove one entry (admin role)
//
// The caller is identified by a JWT from the Authorization header, the
// token cookie or the token query parameter. Anonymous callers read the
// global list.
package notifications
