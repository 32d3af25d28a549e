package validate

import (
	"testing"

	"github.com/lattice-db/lattice/internal/errs"
	"github.com/lattice-db/lattice/internal/model"
)

func dataType(t model.DataType) *model.DataType { return &t }
func floatPtr(f float64) *float64                { return &f }
func intPtr(i int) *int                          { return &i }
func strPtr(s string) *string                    { return &s }

func TestValidateNoneModeAlwaysPasses(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", Required: true}}
	if err := Validate([]byte(`{}`), model.EnforcementNone, constraints); err != nil {
		t.Fatalf("EnforcementNone should never fail, got %v", err)
	}
}

func TestValidateStrictRejectsUndeclaredField(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", DataType: dataType(model.TypeString)}}
	err := Validate([]byte(`{"name": "gear", "extra": 1}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok {
		t.Fatalf("expected a schema validation error, got %v", err)
	}
	found := false
	for _, f := range failures {
		if f.FieldPath == "extra" && f.Code == errs.CodeUnexpectedField {
			found = true
		}
	}
	if !found {
		t.Errorf("expected UNEXPECTED_FIELD for extra, got %+v", failures)
	}
}

func TestValidateFlexibleAllowsUndeclaredField(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", DataType: dataType(model.TypeString)}}
	if err := Validate([]byte(`{"name": "gear", "extra": 1}`), model.EnforcementFlexible, constraints); err != nil {
		t.Fatalf("Flexible mode should allow undeclared fields, got %v", err)
	}
}

func TestValidateRequiredFieldMissing(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", Required: true}}
	err := Validate([]byte(`{}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || len(failures) != 1 || failures[0].Code != errs.CodeMissingRequiredField {
		t.Fatalf("expected a single MISSING_REQUIRED_FIELD failure, got %v / %+v", err, failures)
	}
}

func TestValidatePartialSkipsRequiredCheck(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", Required: true}}
	if err := Validate([]byte(`{}`), model.EnforcementPartial, constraints); err != nil {
		t.Fatalf("Partial mode should not enforce required fields, got %v", err)
	}
}

func TestValidateTypeMismatch(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "age", DataType: dataType(model.TypeInteger)}}
	err := Validate([]byte(`{"age": "old"}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || len(failures) != 1 || failures[0].Code != errs.CodeTypeMismatch {
		t.Fatalf("expected TYPE_MISMATCH, got %v / %+v", err, failures)
	}
}

func TestValidateIntegerSatisfiesNumberConstraint(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "weight", DataType: dataType(model.TypeNumber)}}
	if err := Validate([]byte(`{"weight": 5}`), model.EnforcementStrict, constraints); err != nil {
		t.Fatalf("an integer literal should satisfy a number constraint, got %v", err)
	}
}

func TestValidateMinMaxValue(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "age", MinValue: floatPtr(0), MaxValue: floatPtr(120)}}
	err := Validate([]byte(`{"age": 200}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || failures[0].Code != errs.CodeValueTooLarge {
		t.Fatalf("expected VALUE_TOO_LARGE, got %v / %+v", err, failures)
	}
}

func TestValidateStringLengthBounds(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "name", MinLength: intPtr(3), MaxLength: intPtr(5)}}
	err := Validate([]byte(`{"name": "ab"}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || failures[0].Code != errs.CodeStringTooShort {
		t.Fatalf("expected STRING_TOO_SHORT, got %v / %+v", err, failures)
	}
}

func TestValidateRegexPattern(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "sku", RegexPattern: strPtr(`^[A-Z]\d+$`)}}
	if err := Validate([]byte(`{"sku": "A100"}`), model.EnforcementStrict, constraints); err != nil {
		t.Fatalf("sku A100 should match pattern, got %v", err)
	}
	err := Validate([]byte(`{"sku": "a100"}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || failures[0].Code != errs.CodePatternMismatch {
		t.Fatalf("expected PATTERN_MISMATCH, got %v / %+v", err, failures)
	}
}

func TestValidateAllowedValues(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "status", AllowedValues: []string{"open", "closed"}}}
	err := Validate([]byte(`{"status": "pending"}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok || failures[0].Code != errs.CodeValueNotAllowed {
		t.Fatalf("expected VALUE_NOT_ALLOWED, got %v / %+v", err, failures)
	}
}

func TestValidateNullableField(t *testing.T) {
	constraints := []model.FieldConstraint{{FieldPath: "middle_name", Nullable: true}}
	if err := Validate([]byte(`{"middle_name": null}`), model.EnforcementStrict, constraints); err != nil {
		t.Fatalf("nullable field should accept null, got %v", err)
	}

	notNullable := []model.FieldConstraint{{FieldPath: "name", Nullable: false}}
	err := Validate([]byte(`{"name": null}`), model.EnforcementStrict, notNullable)
	failures, ok := errs.AsValidation(err)
	if !ok || failures[0].Code != errs.CodeNullNotAllowed {
		t.Fatalf("expected NULL_NOT_ALLOWED, got %v / %+v", err, failures)
	}
}

func TestValidateWildcardArrayConstraintPath(t *testing.T) {
	elemType := model.TypeString
	constraints := []model.FieldConstraint{{FieldPath: "items[*].sku", DataType: &elemType}}
	if err := Validate([]byte(`{"items": [{"sku": "A"}, {"sku": "B"}]}`), model.EnforcementStrict, constraints); err != nil {
		t.Fatalf("wildcard constraint path should match each array element, got %v", err)
	}
}

func TestValidateArrayElementType(t *testing.T) {
	elemType := model.TypeInteger
	constraints := []model.FieldConstraint{{FieldPath: "scores", ArrayElementType: &elemType}}
	err := Validate([]byte(`{"scores": [1, 2, "three"]}`), model.EnforcementStrict, constraints)
	failures, ok := errs.AsValidation(err)
	if !ok {
		t.Fatalf("expected validation failures, got %v", err)
	}
	found := false
	for _, f := range failures {
		if f.FieldPath == "scores[2]" && f.Code == errs.CodeInvalidArrayElement {
			found = true
		}
	}
	if !found {
		t.Errorf("expected INVALID_ARRAY_ELEMENT at scores[2], got %+v", failures)
	}
}
