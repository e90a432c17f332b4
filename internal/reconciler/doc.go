// Package reconciler turns the source wiki's change log into the minimal set
// of actions a sync run has to apply.
//
// # Overview
//
// The package is free of I/O. The orchestrator feeds it the change events
// fetched for one window, oldest first, plus the set of excluded titles,
// and gets back a Plan:
//
//	plan := reconciler.BuildPlan(events, reconciler.NewTitleSet(excluded...))
//	if plan.Empty() {
//	    return nil
//	}
//
// # Folding rules
//
// Fold applies each event to the pending-action map in order:
//
//   - new/edit: record the title; a title is minor overall only if every
//     contributing revision was minor
//   - delete: drop the title; a later creation records it again
//   - move: relocate the entry to the target title, keeping the title the
//     page had before its first move so that A->B->C collapses into A->C;
//     a redirect left behind becomes a non-minor entry of its own
//   - upload: record the file's page id; files are reported, not synced
//   - restore, import, merge: record the title as a non-minor revision
//
// # Exclusions
//
// Exclude runs after folding. An entry is dropped when its current title or
// the title it had before being moved is in the excluded set.
package reconciler
