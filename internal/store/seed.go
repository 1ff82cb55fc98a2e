package store

import (
	"encoding/json"
	"fmt"
	"os"

	"agendacal/internal/datekey"
	"agendacal/internal/model"
)

// SeedSource is the source ID records loaded from a seed file are stored under.
const SeedSource = "seed"

// SeedFile is the on-disk JSON layout: records keyed by user ID.
//
//	{"alice": [{"id": "r1", "date": "2024-06-03", "items": [...]}]}
type SeedFile map[string][]model.ScheduleRecord

// ReadRecords decodes a plain JSON array of records, as used by agendactl.
func ReadRecords(path string) ([]model.ScheduleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recs []model.ScheduleRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", path, err)
	}
	if err := validate(recs); err != nil {
		return nil, fmt.Errorf("store: %s: %w", path, err)
	}
	return recs, nil
}

// LoadFile reads a SeedFile and stores each user's records under SeedSource.
// It returns the number of records loaded.
func (m *Memory) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var seed SeedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return 0, fmt.Errorf("store: decode %s: %w", path, err)
	}

	n := 0
	for user, recs := range seed {
		if err := validate(recs); err != nil {
			return 0, fmt.Errorf("store: %s user %q: %w", path, user, err)
		}
		n += len(recs)
	}
	for user, recs := range seed {
		m.Replace(user, SeedSource, recs)
	}
	return n, nil
}

// validate checks dates and kinds. An empty kind is allowed; Replace stores
// it as a task.
func validate(recs []model.ScheduleRecord) error {
	for i, r := range recs {
		if _, err := datekey.Parse(string(r.DateKey)); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, r.ID, err)
		}
		for _, it := range r.Items {
			if it.Kind == "" {
				continue
			}
			if _, err := model.ParseKind(string(it.Kind)); err != nil {
				return fmt.Errorf("record %d (%s) item %s: %w", i, r.ID, it.ID, err)
			}
		}
	}
	return nil
}
