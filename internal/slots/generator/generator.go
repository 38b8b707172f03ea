package generator

import (
	"expertconnect/pkg/model"
	"fmt"
	"time"
)

// Generate returns free slots for expertID on each of the days calendar days
// starting at from, one per label in times.
func Generate(expertID string, from time.Time, days int, times []string) ([]model.Slot, error) {
	if expertID == "" {
		return nil, fmt.Errorf("expert id is required")
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got: %d", days)
	}
	for _, label := range times {
		if !model.TimeLabelRegex.MatchString(label) {
			return nil, fmt.Errorf("invalid time label %q, expected HH:MM", label)
		}
	}

	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	slots := make([]model.Slot, 0, days*len(times))
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format(model.DateLayout)
		for _, label := range times {
			slots = append(slots, model.Slot{
				ExpertID:  expertID,
				Date:      date,
				TimeLabel: label,
				State:     model.SlotFree,
			})
		}
	}
	return slots, nil
}

// FromInputs turns request slot inputs into free slots for expertID.
func FromInputs(expertID string, inputs []model.SlotInput) []model.Slot {
	slots := make([]model.Slot, 0, len(inputs))
	for _, in := range inputs {
		slots = append(slots, model.Slot{
			ExpertID:  expertID,
			Date:      in.Date,
			TimeLabel: in.TimeLabel,
			State:     model.SlotFree,
		})
	}
	return slots
}
