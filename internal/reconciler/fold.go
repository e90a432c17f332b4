package reconciler

// Fold applies events, oldest first, to a copy of initial and returns the
// resulting state. initial is not modified.
func Fold(events []ChangeEvent, initial State) State {
	s := initial.Clone()
	for i, ev := range events {
		apply(&s, i+1, ev)
	}
	return s
}

// Relevant reports whether Fold acts on ev. Callers use it to log the
// entries that are skipped.
func Relevant(ev ChangeEvent) bool {
	switch ev.Type {
	case EventNew, EventEdit:
		return true
	case EventLog:
		return ev.IsLog(LogTypeDelete, LogActionDelete, LogActionDeleteRedir, LogActionRestore) ||
			ev.IsLog(LogTypeMove, LogActionMove, LogActionMoveRedir) ||
			ev.IsLog(LogTypeUpload, LogActionUpload, LogActionOverwrite, LogActionRevert) ||
			ev.IsLog(LogTypeImport) ||
			ev.IsLog(LogTypeMerge)
	}
	return false
}

func apply(s *State, seq int, ev ChangeEvent) {
	switch ev.Type {
	case EventNew, EventEdit:
		touch(s, ev.Title, ev.Minor)
	case EventLog:
		switch {
		case ev.IsLog(LogTypeDelete, LogActionDelete, LogActionDeleteRedir):
			delete(s.Pending, ev.Title)
		case ev.IsLog(LogTypeDelete, LogActionRestore):
			touch(s, ev.Title, false)
		case ev.IsLog(LogTypeMove, LogActionMove, LogActionMoveRedir):
			relocate(s, seq, ev.Title, ev.Log.Params.TargetTitle, ev.Log.Params.SuppressRedirect)
		case ev.IsLog(LogTypeUpload, LogActionUpload, LogActionOverwrite, LogActionRevert):
			s.Uploads[ev.Title] = ev.PageID
		case ev.IsLog(LogTypeImport), ev.IsLog(LogTypeMerge):
			// Imported or merged revisions never show up as edits.
			touch(s, ev.Title, false)
		}
	}
}

// touch records a revision of title. A title stays minor only while every
// revision seen for it is minor.
func touch(s *State, title string, minor bool) {
	a, ok := s.Pending[title]
	if !ok {
		s.Pending[title] = PendingAction{Title: title, Minor: minor}
		return
	}
	a.Minor = a.Minor && minor
	s.Pending[title] = a
}

// relocate moves the pending entry of from onto to. The original title is
// read off the entry itself so that chains collapse into a single move.
func relocate(s *State, seq int, from, to string, suppressRedirect bool) {
	if to == "" || from == to {
		return
	}

	a, ok := s.Pending[from]
	if !ok {
		a = PendingAction{Minor: true}
	}
	if a.OldTitle == "" {
		a.OldTitle = from
	}
	a.hops = append(append([]string(nil), a.hops...), from)
	a.Title = to
	a.moveSeq = seq
	s.Pending[to] = a

	if suppressRedirect {
		delete(s.Pending, from)
		return
	}
	// The redirect left behind is a new revision of its own.
	s.Pending[from] = PendingAction{Title: from, Minor: false}
}
