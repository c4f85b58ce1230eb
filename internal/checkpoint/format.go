package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"bulbfinder/harvester/internal/domain"
)

// progressFile is the on-disk shape of a snapshot.
type progressFile struct {
	FitmentData   []domain.FitmentRecord `json:"fitment_data"`
	LastProcessed domain.Cursor          `json:"last_processed"`
	Timestamp     float64                `json:"timestamp"`
}

func encodeSnapshot(snap domain.Snapshot) ([]byte, error) {
	records := snap.Records
	if records == nil {
		records = []domain.FitmentRecord{}
	}

	data, err := json.MarshalIndent(progressFile{
		FitmentData:   records,
		LastProcessed: snap.Cursor,
		Timestamp:     float64(snap.SavedAt.UnixNano()) / 1e9,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	return data, nil
}

// decodeSnapshot rejects payloads that carry neither records nor a cursor,
// such as null or {}; there is nothing in them to resume from.
func decodeSnapshot(data []byte) (*domain.Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	_, hasRecords := fields["fitment_data"]
	_, hasCursor := fields["last_processed"]
	if !hasRecords && !hasCursor {
		return nil, errors.New("checkpoint holds neither fitment_data nor last_processed")
	}

	var pf progressFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	sec, frac := math.Modf(pf.Timestamp)
	return &domain.Snapshot{
		Records: pf.FitmentData,
		Cursor:  pf.LastProcessed,
		SavedAt: time.Unix(int64(sec), int64(math.Round(frac*1e9))),
	}, nil
}
