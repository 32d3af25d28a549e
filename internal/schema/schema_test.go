package schema

import (
	"testing"

	"github.com/lattice-db/lattice/internal/flatten"
	"github.com/lattice-db/lattice/internal/model"
)

func strPtr(s string) *string { return &s }

func TestInferBasicTypes(t *testing.T) {
	elements := Infer([]flatten.Value{
		{Key: "name", Value: strPtr("gear"), Type: flatten.TypeString},
		{Key: "weight_kg", Value: strPtr("1.5"), Type: flatten.TypeNumber},
		{Key: "count", Value: strPtr("3"), Type: flatten.TypeNumber},
	})
	if len(elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(elements))
	}
	if elements[0].Key != "name" || elements[0].DataType != model.TypeString {
		t.Errorf("name element = %+v", elements[0])
	}
	if elements[1].Key != "weight_kg" || elements[1].DataType != model.TypeNumber {
		t.Errorf("weight_kg element = %+v", elements[1])
	}
	if elements[2].Key != "count" || elements[2].DataType != model.TypeInteger {
		t.Errorf("count element = %+v", elements[2])
	}
}

func TestInferNullableWhenAnyNull(t *testing.T) {
	elements := Infer([]flatten.Value{
		{Key: "nickname", Value: strPtr("ace"), Type: flatten.TypeString},
		{Key: "nickname", Type: flatten.TypeNull},
	})
	if len(elements) != 1 || !elements[0].Nullable {
		t.Fatalf("expected a single nullable element, got %+v", elements)
	}
	if elements[0].DataType != model.TypeString {
		t.Errorf("DataType = %v, want string", elements[0].DataType)
	}
}

func TestInferAllNullIsTypeNull(t *testing.T) {
	elements := Infer([]flatten.Value{
		{Key: "notes", Type: flatten.TypeNull},
	})
	if len(elements) != 1 || elements[0].DataType != model.TypeNull {
		t.Fatalf("expected a single null-typed element, got %+v", elements)
	}
}

func TestInferMixedTypeCollapsesToString(t *testing.T) {
	elements := Infer([]flatten.Value{
		{Key: "value", Value: strPtr("42"), Type: flatten.TypeNumber},
		{Key: "value", Value: strPtr("forty-two"), Type: flatten.TypeString},
	})
	if elements[0].DataType != model.TypeString {
		t.Errorf("DataType = %v, want string for a mixed group", elements[0].DataType)
	}
}

func TestInferPreservesFirstSeenOrder(t *testing.T) {
	elements := Infer([]flatten.Value{
		{Key: "b", Value: strPtr("1"), Type: flatten.TypeString},
		{Key: "a", Value: strPtr("2"), Type: flatten.TypeString},
		{Key: "b", Value: strPtr("3"), Type: flatten.TypeString},
	})
	if len(elements) != 2 || elements[0].Key != "b" || elements[1].Key != "a" {
		t.Fatalf("expected order [b, a], got %+v", elements)
	}
	if elements[0].Position != 0 || elements[1].Position != 1 {
		t.Errorf("positions = %d, %d", elements[0].Position, elements[1].Position)
	}
}

func TestComputeHashDeterministicAndOrderSensitive(t *testing.T) {
	a := []Element{{Key: "x", DataType: model.TypeString}, {Key: "y", DataType: model.TypeInteger}}
	b := []Element{{Key: "x", DataType: model.TypeString}, {Key: "y", DataType: model.TypeInteger}}
	c := []Element{{Key: "y", DataType: model.TypeInteger}, {Key: "x", DataType: model.TypeString}}

	if ComputeHash(a) != ComputeHash(b) {
		t.Error("identical element lists should hash identically")
	}
	if ComputeHash(a) == ComputeHash(c) {
		t.Error("reordering elements should change the hash")
	}
}

func TestComputeHashSensitiveToNullability(t *testing.T) {
	a := []Element{{Key: "x", DataType: model.TypeString, Nullable: false}}
	b := []Element{{Key: "x", DataType: model.TypeString, Nullable: true}}
	if ComputeHash(a) == ComputeHash(b) {
		t.Error("nullability should affect the schema hash")
	}
}
