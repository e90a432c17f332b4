package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclude_ByCurrentAndOriginalTitle(t *testing.T) {
	s := Fold([]ChangeEvent{
		edit("Keep", false),
		edit("Secret", false),
		move("Hidden", "Visible", true),
		upload("File:Secret.png", 7),
	}, NewState())

	out, dropped := Exclude(s, NewTitleSet("Secret", "Hidden", "File:Secret.png"))

	assert.Equal(t, []string{"File:Secret.png", "Secret", "Visible"}, dropped)
	assert.Contains(t, out.Pending, "Keep")
	assert.NotContains(t, out.Pending, "Secret")
	assert.NotContains(t, out.Pending, "Visible")
	assert.Empty(t, out.Uploads)

	// the input state is left alone
	assert.Contains(t, s.Pending, "Secret")
}

func TestExclude_EmptySet(t *testing.T) {
	s := Fold([]ChangeEvent{edit("A", true)}, NewState())
	out, dropped := Exclude(s, nil)
	assert.Nil(t, dropped)
	assert.Equal(t, s.Pending, out.Pending)
}

func TestBuildPlan_MoveScenario(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{newPage("A", true), move("A", "B", true)}, NewTitleSet())

	require.Len(t, plan.Pending, 1)
	b := plan.Pending["B"]
	assert.Equal(t, "B", b.Title)
	assert.Equal(t, "A", b.OldTitle)
	assert.True(t, b.Minor)

	assert.Equal(t, []Move{{From: "A", To: "B"}}, plan.Moves)
	assert.Equal(t, []string{"B"}, plan.Titles)
	assert.NotContains(t, plan.Titles, "A")
}

func TestBuildPlan_ExcludedEditIsEmpty(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{edit("X", false)}, NewTitleSet("X"))

	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Pending)
	assert.Equal(t, []string{"X"}, plan.Excluded)
}

func TestBuildPlan_NoEvents(t *testing.T) {
	plan := BuildPlan(nil, NewTitleSet())
	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Titles)
	assert.Empty(t, plan.Moves)
}

func TestBuildPlan_ExcludedTitlesNeverExported(t *testing.T) {
	events := []ChangeEvent{
		edit("A", false),
		move("A", "B", false),
		edit("C", true),
		move("C", "D", true),
		move("D", "E", true),
	}
	excluded := NewTitleSet("C")

	plan := BuildPlan(events, excluded)

	for _, title := range plan.Titles {
		assert.False(t, excluded.Has(title), "excluded title %q exported", title)
		assert.False(t, excluded.Has(plan.Pending[title].OldTitle), "title %q with excluded origin exported", title)
	}
	assert.Equal(t, []string{"A", "B"}, plan.Titles)
	assert.Equal(t, []Move{{From: "A", To: "B"}}, plan.Moves)
}

func TestBuildPlan_ExcludedDestinationDropsRedirect(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{move("A", "B", false)}, NewTitleSet("B"))

	assert.True(t, plan.Empty())
	assert.Empty(t, plan.Titles)
	assert.Empty(t, plan.Moves)
	assert.Equal(t, []string{"A", "B"}, plan.Excluded)
}

func TestBuildPlan_ExcludedChainDropsEveryHop(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{
		edit("A", false),
		move("A", "B", false),
		move("B", "C", false),
		edit("Other", true),
	}, NewTitleSet("C"))

	assert.Equal(t, []string{"Other"}, plan.Titles)
	assert.Empty(t, plan.Moves)
	assert.Equal(t, []string{"A", "B", "C"}, plan.Excluded)
}

func TestBuildPlan_ExcludedIntermediateHop(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{
		move("A", "B", true),
		move("B", "C", true),
	}, NewTitleSet("B"))

	assert.True(t, plan.Empty())
	assert.Equal(t, []string{"C"}, plan.Excluded)
}

func TestMoveList_ChronologicalOrder(t *testing.T) {
	s := Fold([]ChangeEvent{
		move("Z", "Y", true),
		move("A", "B", true),
		move("M", "N", true),
	}, NewState())

	assert.Equal(t, []Move{
		{From: "Z", To: "Y"},
		{From: "A", To: "B"},
		{From: "M", To: "N"},
	}, MoveList(s))
}

func TestPlan_MinorByTitle(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{edit("A", true), edit("B", false)}, nil)
	assert.Equal(t, map[string]bool{"A": true, "B": false}, plan.MinorByTitle())
}

func TestPlan_UploadTitles(t *testing.T) {
	plan := BuildPlan([]ChangeEvent{upload("File:B.png", 2), upload("File:A.png", 1)}, nil)
	assert.Equal(t, []string{"File:A.png", "File:B.png"}, plan.UploadTitles())
	assert.True(t, plan.Empty(), "uploads alone produce no import")
}
