// Package telemetry records evolution outcomes to CSV for offline
// analysis.
package telemetry

import (
	"fmt"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"github.com/goccy/go-json"
)

// ScoreRecord is one scored entity in one evolution round.
type ScoreRecord struct {
	Tick      uint64 `csv:"tick"`
	EntityID  string `csv:"entity_id"`
	Score     int32  `csv:"score"`
	MajorName string `csv:"major_name"`
	MinorName string `csv:"minor_name"`
	Winner    bool   `csv:"winner"`
}

// ScoreJournal appends evolution scoreboards to a CSV file.
type ScoreJournal struct {
	file          *os.File
	headerWritten bool
}

// NewScoreJournal opens the journal. Returns nil when path is empty
// (output disabled).
func NewScoreJournal(path string) (*ScoreJournal, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating score journal: %w", err)
	}
	return &ScoreJournal{file: f}, nil
}

// evolutionPayload mirrors the "evolution" event JSON shape.
type evolutionPayload struct {
	ScoredEntities map[string]struct {
		Score     int32  `json:"score"`
		MajorName string `json:"major_name"`
		MinorName string `json:"minor_name"`
	} `json:"scored_entities"`
	Winners []string `json:"winners"`
}

// RecordEvolution parses one evolution event payload and appends its
// scoreboard, ordered by entity id.
func (j *ScoreJournal) RecordEvolution(tick uint64, payloadJSON string) error {
	if j == nil {
		return nil
	}

	var payload evolutionPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return fmt.Errorf("parsing evolution payload: %w", err)
	}

	winners := make(map[string]bool, len(payload.Winners))
	for _, id := range payload.Winners {
		winners[id] = true
	}

	records := make([]*ScoreRecord, 0, len(payload.ScoredEntities))
	for id, entry := range payload.ScoredEntities {
		records = append(records, &ScoreRecord{
			Tick:      tick,
			EntityID:  id,
			Score:     entry.Score,
			MajorName: entry.MajorName,
			MinorName: entry.MinorName,
			Winner:    winners[id],
		})
	}
	// Ids are canonical decimal strings: shorter means smaller.
	sort.Slice(records, func(i, k int) bool {
		a, b := records[i].EntityID, records[k].EntityID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	if !j.headerWritten {
		if err := gocsv.Marshal(records, j.file); err != nil {
			return fmt.Errorf("writing scores: %w", err)
		}
		j.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, j.file); err != nil {
		return fmt.Errorf("writing scores: %w", err)
	}
	return nil
}

// Close flushes and closes the journal file.
func (j *ScoreJournal) Close() error {
	if j == nil {
		return nil
	}
	return j.file.Close()
}
