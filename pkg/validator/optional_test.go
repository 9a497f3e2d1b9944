package validator_test

import (
	"encoding/json"
	"testing"

	pkgvalidator "github.com/ghuser/itemsapi/pkg/validator"
)

type patch struct {
	Title     pkgvalidator.Optional[string] `json:"title,omitzero"`
	Completed pkgvalidator.Optional[bool]   `json:"completed,omitzero"`
}

func TestOptional_Unmarshal(t *testing.T) {
	tests := []struct {
		name               string
		body               string
		set, null, invalid bool
		value              string
	}{
		{"absent", `{}`, false, false, false, ""},
		{"null", `{"title":null}`, true, true, false, ""},
		{"wrong type", `{"title":7}`, true, false, true, ""},
		{"value", `{"title":"hi"}`, true, false, false, "hi"},
		{"empty string", `{"title":""}`, true, false, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p patch
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			o := p.Title
			if o.Set != tt.set || o.Null != tt.null || o.Invalid != tt.invalid || o.Value != tt.value {
				t.Fatalf("expected set=%v null=%v invalid=%v value=%q, got %+v", tt.set, tt.null, tt.invalid, tt.value, o)
			}
			if _, ok := o.Get(); ok != (tt.set && !tt.null && !tt.invalid) {
				t.Fatalf("Get ok mismatch for %+v", o)
			}
		})
	}
}

func TestOptional_MarshalOmitsAbsent(t *testing.T) {
	b, err := json.Marshal(patch{Completed: pkgvalidator.Some(true)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"completed":true}` {
		t.Fatalf("expected only completed, got %s", b)
	}
}

func TestOptional_TypeName(t *testing.T) {
	if got := (pkgvalidator.Optional[bool]{}).TypeName(); got != "boolean" {
		t.Fatalf("expected boolean, got %q", got)
	}
	if got := (pkgvalidator.Optional[string]{}).TypeName(); got != "string" {
		t.Fatalf("expected string, got %q", got)
	}
}
