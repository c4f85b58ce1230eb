package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestUnique(t *testing.T) {
	low := FitmentRecord{Year: "2019", Make: "Ford", Model: "F-150", Position: "Low Beam", YearCode: "1", MakeCode: "2", ModelCode: "3", PositionCode: "10"}
	high := low
	high.Position = "High Beam"
	high.PositionCode = "11"
	recoded := low
	recoded.MakeCode = "99"

	got := Unique([]FitmentRecord{low, high, low, recoded, high, low})
	want := []FitmentRecord{low, high, recoded}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected unique records (-want +got):\n%s", diff)
	}
}

func TestUniqueEmpty(t *testing.T) {
	require.Empty(t, Unique(nil))
}

func TestRowFollowsColumns(t *testing.T) {
	r := FitmentRecord{Year: "a", Make: "b", Model: "c", Position: "d", YearCode: "e", MakeCode: "f", ModelCode: "g", PositionCode: "h"}
	require.Len(t, r.Row(), len(FitmentColumns))
	require.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g", "h"}, r.Row())
}

func TestLevelChild(t *testing.T) {
	require.Equal(t, LevelMake, LevelYear.Child())
	require.Equal(t, LevelPosition, LevelModel.Child())
	require.Equal(t, LevelPosition, LevelPosition.Child())
	require.True(t, LevelPosition.IsLeaf())
	require.Equal(t, "bulbFinderPositions", ControlNames{}.For(LevelPosition))
	require.Equal(t, "custom", ControlNames{LevelMake: "custom"}.For(LevelMake))
}
