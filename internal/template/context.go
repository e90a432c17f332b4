package template

// Context is the data available to the summary template.
type Context struct {
	// Source is the source wiki's name or API URL.
	Source string
	// Since and Until bound the sync window.
	Since string
	Until string
	// Pages is the number of pages in the import.
	Pages int
	// Moves is the number of moves replayed.
	Moves int
	// RunID identifies the run in logs.
	RunID string
}
