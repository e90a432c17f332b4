// Package mock provides an in-process fake of the MediaWiki action API for
// tests.
//
// Wiki serves api.php through an httptest.Server with gorilla/mux routes for
// the actions a sync run uses: recent changes, category members, export,
// tokens, login, move and import. Tests fill in the exported fields (the
// change feed, categories, page texts, bot users), run code against
// Endpoint(), and then inspect what the fake received:
//
//	source := mock.NewWiki(t)
//	source.AddChange("new", "A", true, "2024-03-01T10:00:00Z")
//	source.Pages["A"] = mock.Page{Text: "hello", Minor: true}
//
//	target := mock.NewWiki(t)
//	target.Users["Admin@Sync"] = "pw"
//	// ... run a sync ...
//	assert.Len(t, target.Imports(), 1)
//
// Failures maps an operation to an HTTP status, MoveErrors makes single
// moves fail with an API error code, and a MockClock pins curtimestamp.
package mock
