package reconciler

import "sort"

// Plan is everything a sync run has to apply for one window.
type Plan struct {
	// Pending holds the surviving actions keyed by current title.
	Pending map[string]PendingAction

	// Uploads holds file uploads seen in the window, keyed by title.
	// Files are reported only; they are never transferred.
	Uploads map[string]int64

	// Excluded lists the titles dropped by the exclusion filter.
	Excluded []string

	// Moves lists the moves to replay, in the order they happened.
	Moves []Move

	// Titles lists the titles to export and import, sorted.
	Titles []string
}

// BuildPlan folds events into a fresh state, applies the exclusion set and
// derives the move list and export titles.
func BuildPlan(events []ChangeEvent, excluded TitleSet) Plan {
	folded := Fold(events, NewState())
	filtered, dropped := Exclude(folded, excluded)

	return Plan{
		Pending:  filtered.Pending,
		Uploads:  filtered.Uploads,
		Excluded: dropped,
		Moves:    MoveList(filtered),
		Titles:   ExportTitles(filtered),
	}
}

// MoveList derives the moves to replay from a folded state, ordered by the
// event that last relocated each page.
func MoveList(s State) []Move {
	moved := make([]PendingAction, 0)
	for _, a := range s.Pending {
		if a.Moved() {
			moved = append(moved, a)
		}
	}
	sort.Slice(moved, func(i, j int) bool {
		if moved[i].moveSeq != moved[j].moveSeq {
			return moved[i].moveSeq < moved[j].moveSeq
		}
		return moved[i].Title < moved[j].Title
	})

	moves := make([]Move, 0, len(moved))
	for _, a := range moved {
		moves = append(moves, Move{From: a.OldTitle, To: a.Title})
	}
	return moves
}

// ExportTitles returns the pending titles in sorted order.
func ExportTitles(s State) []string {
	titles := make([]string, 0, len(s.Pending))
	for title := range s.Pending {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Empty reports whether the plan has nothing to export, import or move.
func (p Plan) Empty() bool {
	return len(p.Titles) == 0 && len(p.Moves) == 0
}

// MinorByTitle returns the page-level minor flag for each pending title.
func (p Plan) MinorByTitle() map[string]bool {
	m := make(map[string]bool, len(p.Pending))
	for title, a := range p.Pending {
		m[title] = a.Minor
	}
	return m
}

// UploadTitles returns the uploaded file titles in sorted order.
func (p Plan) UploadTitles() []string {
	titles := make([]string, 0, len(p.Uploads))
	for title := range p.Uploads {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
