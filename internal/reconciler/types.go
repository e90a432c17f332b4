package reconciler

// EventType is the recent-changes entry type of a ChangeEvent.
type EventType string

const (
	// EventNew indicates a page creation.
	EventNew EventType = "new"

	// EventEdit indicates an edit to an existing page.
	EventEdit EventType = "edit"

	// EventLog indicates a log entry (move, delete, upload, ...).
	EventLog EventType = "log"
)

// Log types and actions the reducer acts on. Anything else is ignored.
const (
	LogTypeMove   = "move"
	LogTypeDelete = "delete"
	LogTypeUpload = "upload"
	LogTypeImport = "import"
	LogTypeMerge  = "merge"

	LogActionMove        = "move"
	LogActionMoveRedir   = "move_redir"
	LogActionDelete      = "delete"
	LogActionDeleteRedir = "delete_redir"
	LogActionRestore     = "restore"
	LogActionUpload      = "upload"
	LogActionOverwrite   = "overwrite"
	LogActionRevert      = "revert"
)

// ChangeEvent is one entry of the source wiki's recent-changes feed.
type ChangeEvent struct {
	// Type is the entry type.
	Type EventType

	// Title is the page title the entry is about. For moves this is the
	// title the page was moved from.
	Title string

	// PageID is the page id reported by the wiki (0 when unknown).
	PageID int64

	// Minor is set for new/edit entries flagged as minor.
	Minor bool

	// Timestamp is the server timestamp of the entry.
	Timestamp string

	// Log is set only when Type is EventLog.
	Log *LogEntry
}

// LogEntry carries the log-specific part of a ChangeEvent.
type LogEntry struct {
	Type   string
	Action string
	Params LogParams
}

// LogParams holds the log parameters the reducer needs.
type LogParams struct {
	// TargetTitle is the destination of a move.
	TargetTitle string

	// SuppressRedirect is set when a move left no redirect behind.
	SuppressRedirect bool
}

// IsLog reports whether the event is a log entry of the given type and,
// when actions are given, one of those actions.
func (e ChangeEvent) IsLog(logType string, actions ...string) bool {
	if e.Type != EventLog || e.Log == nil || e.Log.Type != logType {
		return false
	}
	if len(actions) == 0 {
		return true
	}
	for _, a := range actions {
		if e.Log.Action == a {
			return true
		}
	}
	return false
}

// PendingAction is the resolved intent for one title after folding all
// events of a sync window.
type PendingAction struct {
	// Title is the current (final) title.
	Title string

	// OldTitle is the title the page had before the first move in the
	// window, empty when the page was not moved.
	OldTitle string

	// Minor is true only if every contributing revision was minor.
	Minor bool

	// moveSeq orders relocated entries by the event that last moved them.
	moveSeq int

	// hops lists every title the page held before Title, oldest first.
	hops []string
}

// Moved reports whether the action carries a move to replay.
func (a PendingAction) Moved() bool {
	return a.OldTitle != "" && a.OldTitle != a.Title
}

// State is the reducer state: pending page actions keyed by title and
// uploaded files keyed by title.
type State struct {
	Pending map[string]PendingAction
	Uploads map[string]int64
}

// NewState returns an empty State.
func NewState() State {
	return State{
		Pending: make(map[string]PendingAction),
		Uploads: make(map[string]int64),
	}
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := NewState()
	for k, v := range s.Pending {
		c.Pending[k] = v
	}
	for k, v := range s.Uploads {
		c.Uploads[k] = v
	}
	return c
}

// TitleSet is a set of page titles.
type TitleSet map[string]struct{}

// NewTitleSet builds a TitleSet from the given titles.
func NewTitleSet(titles ...string) TitleSet {
	s := make(TitleSet, len(titles))
	for _, t := range titles {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether title is in the set.
func (s TitleSet) Has(title string) bool {
	_, ok := s[title]
	return ok
}

// Move is one page move to replay on the target wiki.
type Move struct {
	From string
	To   string
}
