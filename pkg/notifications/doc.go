// Package notifications ingests task notifications, stores them per
// recipient and streams them to connected clients.
//
// The package is transport-agnostic: it works on a kvstore.Store and a
// StreamWriter, and the HTTP surface lives in modules/notifications.
//
// # Architecture
//
// The package is split into small pieces wired together by the caller:
//
//   - Payload: decoding, validation and normalization of inbound bodies
//   - Storage: per-target persistence (ListStorage or HashStorage)
//   - Dispatcher: worker pool running the asynchronous delivery tail
//   - Engine: ingest, list, delete and purge on top of Storage
//   - Gateway: bridges a target's pub/sub channel to a client stream
//
// # Routing
//
// A notification without a recipient is global. Each notification lands in
// exactly one list, "notifications:global" or "notifications:{recipient}",
// and is published on the matching channel, "notification:global" or
// "notification:{recipient}". Both names derive from the same Target:
//
//	t := notifications.Recipient("user-1")
//	t.ListKey() // "notifications:user-1"
//	t.Channel() // "notification:user-1"
//
// The recipient id "global" is reserved. Payloads carrying it fail
// validation, and ReservedRecipient lets callers that take ids from other
// sources, such as tokens, apply the same rule.
//
// # Basic Usage
//
//	store := kvstore.NewMemory()
//	storage := notifications.NewHashStorage(store, 7*24*time.Hour)
//
//	dispatcher := notifications.NewDispatcher(
//	    notifications.WithWorkers(4),
//	    notifications.WithRetries(2),
//	)
//	engine := notifications.NewEngine(storage, store,
//	    notifications.WithDispatcher(dispatcher),
//	)
//	defer dispatcher.Stop(ctx)
//
//	n, err := engine.Ingest(ctx, notifications.Payload{
//	    Text:   "Transcription finished",
//	    Task:   &notifications.TaskRef{Identifier: "t-9", FileName: "call.wav"},
//	    UserID: "user-1",
//	})
//
// Ingest validates and normalizes the payload and returns right away with
// the generated uuid and timestamp. Persisting and publishing run on the
// Dispatcher; their failures are logged and never reach the caller. Tests
// call Engine.Wait to settle the tail before asserting on storage.
//
// # Validation
//
// DecodePayload and Payload.Validate report problems as a ValidationError,
// a map from JSON field path to messages:
//
//	_, err := engine.Ingest(ctx, notifications.Payload{})
//	var verr notifications.ValidationError
//	if errors.As(err, &verr) {
//	    // verr["text"] == []string{"is required"}
//	}
//
// # Storage
//
// NewStorage picks a strategy by name (StorageList or StorageHash).
// ListStorage replaces by uuid with a read, a remove and a push, and can
// duplicate an entry when the same uuid is delivered concurrently.
// HashStorage keys entries by uuid and cannot. Both list newest first by
// ingestion order, not by timestamp, and refresh the target's TTL on every
// write.
//
// # Dispatcher
//
// Jobs go to a buffered queue served by a fixed number of workers. When
// the queue is full the job runs on its own goroutine instead of blocking
// the caller. Failed jobs are retried with a webhook.BackoffStrategy. Stop
// refuses new jobs and drains the queue until its context ends.
//
// # Streaming
//
// Gateway.Stream writes a "connected" event, opens a dedicated subscription
// and forwards each published message as a "notification" event until the
// context is done. With WithHeartbeat set, idle streams receive ": ping"
// comments that are not events:
//
//	gateway := notifications.NewGateway(store, notifications.WithHeartbeat(25*time.Second))
//
//	func events(w http.ResponseWriter, r *http.Request) {
//	    sw, err := sse.NewWriter(w)
//	    if err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	        return
//	    }
//	    _ = gateway.Stream(r.Context(), notifications.Recipient(userID(r)), sw)
//	}
//
// A subscribe failure after the acknowledgement ends the stream with an
// error wrapping ErrSubscribe; clients are expected to reconnect.
//
// # Configuration
//
// Config reads NOTIFICATION_STORAGE, NOTIFICATION_TTL, NOTIFICATION_WORKERS,
// NOTIFICATION_QUEUE_SIZE, NOTIFICATION_RETRIES, NOTIFICATION_HEARTBEAT and
// NOTIFICATION_DRAIN_TIMEOUT through pkg/config. DispatcherOptions turns it
// into dispatcher options.
package notifications
