package reconciler

import "sort"

// Exclude drops every pending action whose title, or any title the page
// held earlier in the window, is excluded, and every upload whose title is.
// The titles a dropped page held are excluded as well, so a redirect left
// behind by an excluded page is dropped too. It must run on a fully folded
// state since a move can reveal an excluded original title late in the
// window. The dropped titles are returned sorted.
func Exclude(s State, excluded TitleSet) (State, []string) {
	out := s.Clone()
	if len(excluded) == 0 {
		return out, nil
	}

	closed := closeOverMoves(s, excluded)

	var dropped []string
	for title := range out.Pending {
		if closed.Has(title) {
			delete(out.Pending, title)
			dropped = append(dropped, title)
		}
	}
	for title := range out.Uploads {
		if excluded.Has(title) {
			delete(out.Uploads, title)
			if _, seen := s.Pending[title]; !seen {
				dropped = append(dropped, title)
			}
		}
	}

	sort.Strings(dropped)
	return out, dropped
}

// closeOverMoves extends excluded with the current and earlier titles of
// every page that touches it, until no page adds a new title.
func closeOverMoves(s State, excluded TitleSet) TitleSet {
	closed := make(TitleSet, len(excluded))
	for title := range excluded {
		closed[title] = struct{}{}
	}

	for changed := true; changed; {
		changed = false
		for title, a := range s.Pending {
			if !touchesAny(closed, title, a.hops) {
				continue
			}
			for _, t := range append([]string{title}, a.hops...) {
				if !closed.Has(t) {
					closed[t] = struct{}{}
					changed = true
				}
			}
		}
	}
	return closed
}

func touchesAny(set TitleSet, title string, hops []string) bool {
	if set.Has(title) {
		return true
	}
	for _, h := range hops {
		if set.Has(h) {
			return true
		}
	}
	return false
}
