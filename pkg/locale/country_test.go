package locale

import (
	"reflect"
	"testing"
)

func TestInferCountryFromPhone(t *testing.T) {
	tests := []struct {
		name     string
		phone    string
		wantCode string
		wantNil  bool
	}{
		{
			name:     "Israel phone",
			phone:    "+972541234567",
			wantCode: "IL",
		},
		{
			name:     "US phone",
			phone:    "+12125551234",
			wantCode: "US",
		},
		{
			name:     "UK phone",
			phone:    " +442071234567 ",
			wantCode: "GB",
		},
		{
			name:    "national format has no dialing code",
			phone:   "(212) 555-1234",
			wantNil: true,
		},
		{
			name:    "unknown dialing code",
			phone:   "+33123456789",
			wantNil: true,
		},
		{
			name:    "empty phone",
			phone:   "",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferCountryFromPhone(tt.phone)
			if tt.wantNil {
				if got != nil {
					t.Errorf("InferCountryFromPhone(%q) = %v, want nil", tt.phone, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("InferCountryFromPhone(%q) = nil, want country with code %q", tt.phone, tt.wantCode)
			}
			if got.Code != tt.wantCode {
				t.Errorf("InferCountryFromPhone(%q).Code = %q, want %q", tt.phone, got.Code, tt.wantCode)
			}
		})
	}
}

func TestRegionsFor(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  []string
	}{
		{name: "no dialing code keeps fallback order", phone: "0541234567", want: []string{"US", "GB", "IN", "IL"}},
		{name: "inferred country goes first", phone: "+972541234567", want: []string{"IL", "US", "GB", "IN"}},
		{name: "first country stays first", phone: "+16502530000", want: []string{"US", "GB", "IN", "IL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RegionsFor(tt.phone); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RegionsFor(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}
