package logview

// Topics the log view publishes on. Renderers subscribe to both: the status
// topic feeds the message line, the update topic triggers repaints.
const (
	StatusTopic = "logview_status"
	UpdateTopic = "logview_update"
)

// StatusKind classifies a status message for the renderer.
type StatusKind string

const (
	StatusOK    StatusKind = "ok"
	StatusInfo  StatusKind = "info"
	StatusError StatusKind = "error"
)

// StatusEvent is the user-facing outcome of one operation. Error events
// carry the store's message verbatim when it reported one.
type StatusEvent struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// UpdateReason names the operation that changed the view.
type UpdateReason string

const (
	UpdateReset UpdateReason = "reset"
	UpdateOlder UpdateReason = "older"
	UpdateNewer UpdateReason = "newer"
	UpdatePurge UpdateReason = "purge"
)

// UpdateEvent tells renderers the held entry list changed. Fresh is the
// number of entries the merge added; for UpdateNewer those are the first
// Fresh rows of the snapshot, since fresh entries always sort to the top.
type UpdateEvent struct {
	Reason UpdateReason `json:"reason"`
	Fresh  int          `json:"fresh"`
	Total  int          `json:"total"`
}
