package sanitizer

import (
	"expertconnect/pkg/model"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func SanitizeContact(c model.Contact) model.Contact {
	return model.Contact{
		Name:  NormalizeName(c.Name),
		Email: NormalizeEmail(c.Email),
		Phone: NormalizePhone(c.Phone),
	}
}

func SanitizeReservation(req *model.ReservationRequest) {
	req.ExpertID = strings.TrimSpace(req.ExpertID)
	req.Date = strings.TrimSpace(req.Date)
	req.TimeLabel = strings.TrimSpace(req.TimeLabel)
	req.Contact = SanitizeContact(req.Contact)
	req.Notes = NormalizeNotes(req.Notes)
}

func SanitizeSlotInputs(inputs []model.SlotInput) []model.SlotInput {
	seen := make(map[model.SlotInput]struct{}, len(inputs))
	out := make([]model.SlotInput, 0, len(inputs))

	for _, in := range inputs {
		in.Date = strings.TrimSpace(in.Date)
		in.TimeLabel = strings.TrimSpace(in.TimeLabel)
		if _, dup := seen[in]; dup {
			continue
		}
		seen[in] = struct{}{}
		out = append(out, in)
	}
	return out
}
