package document

type EventName string

const (
	EventContentChanged   EventName = "content.changed"
	EventBlockAdded       EventName = "block.added"
	EventBlockRemoved     EventName = "block.removed"
	EventBlockUpdated     EventName = "block.updated"
	EventSelectionChanged EventName = "selection.changed"
	EventFocusChanged     EventName = "focus.changed"
	EventConfigChanged    EventName = "config.changed"
	EventHistoryChanged   EventName = "history.changed"
	EventValidationFailed EventName = "validation.failed"
)

// Event is a notification delivered synchronously to listeners, in
// mutation order, within the mutating call.
type Event struct {
	Name    EventName
	Index   int
	BlockID string
	Err     error
}

type Listener func(Event)
