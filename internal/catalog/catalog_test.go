package catalog

import (
	"testing"

	"bulbfinder/harvester/internal/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestOptionsDropsPlaceholders(t *testing.T) {
	c := New("", 2018, 2025)

	raw := []domain.RawOption{
		{Value: "", Text: "Please Select"},
		{Value: "0", Text: "Please Select"},
		{Value: "", Text: "Toyota"},
		{Value: "12", Text: " Toyota "},
		{Value: "7", Text: "Honda"},
		{Value: "8", Text: ""},
	}

	got := c.Options(domain.LevelMake, raw)
	want := []domain.OptionEntry{
		{Code: "12", Label: "Toyota"},
		{Code: "7", Label: "Honda"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected options (-want +got):\n%s", diff)
	}
}

func TestOptionsYearRange(t *testing.T) {
	c := New("Please Select", 2018, 2025)

	raw := []domain.RawOption{
		{Value: "", Text: "Please Select"},
		{Value: "2026", Text: "2026"},
		{Value: "2025", Text: "2025"},
		{Value: "2019", Text: "2019"},
		{Value: "2018", Text: "2018"},
		{Value: "2017", Text: "2017"},
		{Value: "old", Text: "Older"},
	}

	got := c.Options(domain.LevelYear, raw)
	require.Equal(t, []domain.OptionEntry{
		{Code: "2025", Label: "2025"},
		{Code: "2019", Label: "2019"},
		{Code: "2018", Label: "2018"},
	}, got)
}

func TestOptionsYearRangeOnlyAppliesToYears(t *testing.T) {
	c := New("", 2018, 2025)

	got := c.Options(domain.LevelModel, []domain.RawOption{{Value: "1999", Text: "1999"}})
	require.Len(t, got, 1)
}

func TestOptionsCustomPlaceholder(t *testing.T) {
	c := New("-- choose --", 2018, 2025)

	got := c.Options(domain.LevelPosition, []domain.RawOption{
		{Value: "x", Text: "-- choose --"},
		{Value: "1", Text: "Please Select"},
	})
	require.Equal(t, []domain.OptionEntry{{Code: "1", Label: "Please Select"}}, got)
}
