package utils

import "testing"

type sampleRequest struct {
	Email     string `json:"email" validate:"required,email"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	Role      string `json:"role" validate:"oneof=guest host"`
	NoTag     string `validate:"required"`
}

func TestValidateStruct_UsesJSONNames(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Email: "nope", StartDate: "2024-13-40", Role: "root"})

	want := map[string]string{
		"email":      "Invalid email format",
		"start_date": "Must be a date in 2006-01-02 format",
		"role":       "Must be one of: guest, host",
		"NoTag":      "This field is required",
	}
	if len(errs) != len(want) {
		t.Fatalf("errs = %v", errs)
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], msg)
		}
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	errs := ValidateStruct(sampleRequest{Email: "a@b.co", StartDate: "2024-02-29", Role: "host", NoTag: "x"})
	if errs != nil {
		t.Fatalf("errs = %v", errs)
	}
}

func TestFormatValidationErrors_Sorted(t *testing.T) {
	got := FormatValidationErrors(map[string]string{"b": "two", "a": "one"})
	if got != "a: one; b: two" {
		t.Fatalf("got %q", got)
	}
}
