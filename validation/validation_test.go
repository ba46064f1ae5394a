package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/lifescope/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("name", "")
	v.Required("version", "   ")
	v.Required("environment", "development")

	if len(v.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(v.Errors()))
	}
	if v.Errors()[0].Field != "name" || v.Errors()[0].Message != "is required" {
		t.Errorf("unexpected first error %+v", v.Errors()[0])
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("environment", "production", []string{"development", "production"})
	if v.HasErrors() {
		t.Error("expected allowed value to pass")
	}

	v.OneOf("environment", "qa", []string{"development", "production"})
	if !v.HasErrors() {
		t.Fatal("expected disallowed value to fail")
	}
	if !strings.Contains(v.Errors()[0].Message, `"qa"`) {
		t.Errorf("expected the rejected value in the message, got %q", v.Errors()[0].Message)
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(true, "a", "never")
	v.Custom(false, "b", "must be set when c is set")
	if len(v.Errors()) != 1 || v.Errors()[0].Field != "b" {
		t.Errorf("unexpected errors %+v", v.Errors())
	}
}

func TestValidatorErr(t *testing.T) {
	if err := New().Err(); err != nil {
		t.Errorf("expected nil for no errors, got %v", err)
	}

	v := New().Required("name", "").Required("version", "")
	err := v.Err()
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if !strings.Contains(err.Error(), "name: is required; version: is required") {
		t.Errorf("unexpected message %q", err.Error())
	}
	appErr, _ := errors.AsAppError(err)
	if fields, ok := appErr.Details["fields"].([]FieldError); !ok || len(fields) != 2 {
		t.Errorf("expected field details, got %v", appErr.Details["fields"])
	}
}

func TestValidatorMerge(t *testing.T) {
	inner := New().Required("level", "").Err()

	v := New()
	v.Merge("logging", inner)
	v.Merge("telemetry", stderrors.New("endpoint unreachable"))
	v.Merge("container", nil)

	errs := v.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(errs))
	}
	if errs[0].Field != "logging.level" {
		t.Errorf("expected nested field path, got %q", errs[0].Field)
	}
	if errs[1].Field != "telemetry" || errs[1].Message != "endpoint unreachable" {
		t.Errorf("unexpected plain error entry %+v", errs[1])
	}
}

type innerConfig struct {
	DisposeOrder string  `mapstructure:"dispose_order" validate:"oneof=reverse forward"`
	SampleRate   float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

type outerConfig struct {
	Name      string      `mapstructure:"name" validate:"required"`
	Endpoint  string      `mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	Container innerConfig `mapstructure:"container"`
}

func TestStructValidateValid(t *testing.T) {
	cfg := outerConfig{
		Name:      "svc",
		Endpoint:  "localhost:4318",
		Container: innerConfig{DisposeOrder: "reverse", SampleRate: 0.5},
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	cfg := outerConfig{
		Endpoint:  "not an address",
		Container: innerConfig{DisposeOrder: "sideways", SampleRate: 2},
	}
	err := Validate(cfg)
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}

	msg := err.Error()
	for _, want := range []string{
		"name: is required",
		"endpoint: must be a host:port address",
		"container.dispose_order: must be one of: reverse forward",
		"container.sample_rate: must be at most 1",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestStructValidateNotAStruct(t *testing.T) {
	err := Validate(42)
	if !stderrors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected INVALID_INPUT for non-struct, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":         "name",
		"DisposeOrder": "dispose_order",
		"A":            "a",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
