package backend

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestValidateIntentPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		valid   bool
	}{
		{"well-formed positive", `{"success":true,"data":{"wants_to_start":true}}`, true},
		{"well-formed negative", `{"success":true,"data":{"wants_to_start":false}}`, true},
		{"extra fields tolerated", `{"success":true,"data":{"wants_to_start":true,"confidence":0.9}}`, true},
		{"missing data", `{"success":true}`, false},
		{"missing verdict", `{"success":true,"data":{}}`, false},
		{"verdict wrong type", `{"success":true,"data":{"wants_to_start":"ya"}}`, false},
		{"success wrong type", `{"success":"true","data":{"wants_to_start":true}}`, false},
		{"not an object", `[1,2,3]`, false},
		{"invalid json", `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIntentPayload(json.RawMessage(tt.payload))
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid {
				var malformed *ErrMalformedPayload
				if !errors.As(err, &malformed) {
					t.Fatalf("expected ErrMalformedPayload, got: %T (%v)", err, err)
				}
			}
		})
	}
}
