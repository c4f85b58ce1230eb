package sink

import (
	"testing"

	"bulbfinder/harvester/internal/domain"

	"github.com/stretchr/testify/require"
)

func record(position string) domain.FitmentRecord {
	return domain.FitmentRecord{
		Year: "2019", Make: "Ford", Model: "F-150", Position: position,
		YearCode: "2019", MakeCode: "54", ModelCode: "901", PositionCode: position,
	}
}

func TestFlushIsIdempotentPerRecord(t *testing.T) {
	s := New()
	r := record("Low Beam")

	s.Emit(r)
	s.Emit(r)

	require.Equal(t, 2, s.Len())
	require.Equal(t, []domain.FitmentRecord{r}, s.Flush())
	require.Equal(t, s.Flush(), s.Flush())
}

func TestFlushKeepsDistinctRecords(t *testing.T) {
	s := New()
	low := record("Low Beam")
	high := record("High Beam")
	recoded := low
	recoded.ModelCode = "902"

	s.Emit(low)
	s.Emit(high)
	s.Emit(recoded)
	s.Emit(low)

	require.Equal(t, []domain.FitmentRecord{low, high, recoded}, s.Flush())
}

func TestSeedThenEmitDeduplicatesAcrossSessions(t *testing.T) {
	s := New()
	low := record("Low Beam")
	high := record("High Beam")

	s.Seed([]domain.FitmentRecord{low, high})
	s.Emit(high)
	s.Emit(record("Fog"))

	require.Equal(t, 4, s.Len())
	require.Equal(t, []domain.FitmentRecord{low, high, record("Fog")}, s.Flush())
}

func TestFlushEmpty(t *testing.T) {
	require.Empty(t, New().Flush())
}
