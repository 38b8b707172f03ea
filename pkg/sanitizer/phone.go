package sanitizer

import (
	"strings"

	"expertconnect/pkg/locale"

	"github.com/nyaruka/phonenumbers"
)

// NormalizePhone returns the E.164 form of phone, or the trimmed input when it is not a
// valid number in any supported region.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range locale.RegionsFor(phone) {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return phone
}
