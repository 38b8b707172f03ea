package locale

import (
	"sort"
	"strings"
)

type Country struct {
	Code        string // ISO 3166-1 alpha-2 country code (e.g., "US", "IL")
	Name        string
	DialingCode string // international prefix including the plus (e.g., "+972")
}

// Countries are the regions contact phone numbers are parsed against.
// Order is the fallback order for numbers written without a dialing code.
var Countries = []Country{
	{Code: "US", Name: "United States", DialingCode: "+1"},
	{Code: "GB", Name: "United Kingdom", DialingCode: "+44"},
	{Code: "IN", Name: "India", DialingCode: "+91"},
	{Code: "IL", Name: "Israel", DialingCode: "+972"},
}

// InferCountryFromPhone returns the country whose dialing code prefixes phone.
// Longer dialing codes win. Numbers without a leading plus have no dialing code.
func InferCountryFromPhone(phone string) *Country {
	normalized := strings.TrimSpace(phone)
	if !strings.HasPrefix(normalized, "+") {
		return nil
	}

	var best *Country
	for i := range Countries {
		c := &Countries[i]
		if strings.HasPrefix(normalized, c.DialingCode) && (best == nil || len(c.DialingCode) > len(best.DialingCode)) {
			best = c
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// RegionsFor lists region codes to try when parsing phone: the inferred
// country first, then the rest in fallback order.
func RegionsFor(phone string) []string {
	regions := make([]string, 0, len(Countries))
	for _, c := range Countries {
		regions = append(regions, c.Code)
	}
	if inferred := InferCountryFromPhone(phone); inferred != nil {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i] == inferred.Code && regions[j] != inferred.Code
		})
	}
	return regions
}
