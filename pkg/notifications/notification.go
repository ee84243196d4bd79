package notifications

// TaskRef is a weak reference to a transcription task.
type TaskRef struct {
	Identifier string `json:"identifier" validate:"required,max=256"`
	FileName   string `json:"file_name,omitempty" validate:"max=1024"`
}

// Notification is the stored and published record.
type Notification struct {
	UUID        string   `json:"uuid"`
	Timestamp   int64    `json:"timestamp"`
	Read        bool     `json:"read"`
	Text        string   `json:"text"`
	Task        *TaskRef `json:"task,omitempty"`
	IsGlobal    bool     `json:"isGlobal"`
	RecipientID string   `json:"recipientId,omitempty"`
}

// Target returns the list and channel the notification is routed to.
func (n Notification) Target() Target {
	if n.IsGlobal {
		return Global
	}
	return Recipient(n.RecipientID)
}

const globalKey = "global"

// Target identifies one notification list and its pub/sub channel. Both
// names derive from Key, so writers and stream subscribers always agree.
type Target struct {
	recipientID string
}

// Global is the target for notifications without a recipient.
var Global = Target{}

// ReservedRecipient reports whether id would address the global list and
// channel. Such ids are rejected at ingest and treated as anonymous on reads.
func ReservedRecipient(id string) bool { return id == globalKey }

// Recipient returns the target for recipientID. An empty id yields Global.
func Recipient(recipientID string) Target {
	return Target{recipientID: recipientID}
}

func (t Target) IsGlobal() bool { return t.recipientID == "" }

// Key is "global" or the recipient id.
func (t Target) Key() string {
	if t.IsGlobal() {
		return globalKey
	}
	return t.recipientID
}

// ListKey is the store key holding the target's notifications.
func (t Target) ListKey() string { return "notifications:" + t.Key() }

// Channel is the pub/sub channel the target's notifications are published on.
func (t Target) Channel() string { return "notification:" + t.Key() }
