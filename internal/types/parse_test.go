package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"optimind/internal/tester"
)

const validPayload = `{
	"variables": [
		{"name": "x1", "kind": "continuous", "lower_bound": 0, "upper_bound": 100},
		{"name": "x2", "kind": "Integer", "lower_bound": "0", "upper_bound": "10"},
		{"name": "b", "kind": "bool", "lower_bound": 5, "upper_bound": 7}
	],
	"constraints": [
		{"expression": "x1 + x2 <= 50", "description": "capacity"}
	],
	"objective": {"sense": "Maximize", "expression": "40*x1 + 30*x2"},
	"model_type": "mixed-integer-linear"
}`

func TestDecodeModelSpec_Valid(t *testing.T) {
	spec, err := DecodeModelSpec(json.RawMessage(validPayload))
	tester.NoErr(t, err)
	tester.Eq(t, len(spec.Variables), 3)
	tester.Eq(t, spec.Variables[1].Kind, VarInteger, "kind spelling normalizes")
	tester.Eq(t, spec.Variables[1].UpperBound, 10.0, "numeric strings are tolerated")
	tester.Eq(t, spec.Variables[2].LowerBound, 0.0, "binary bounds normalize to [0,1]")
	tester.Eq(t, spec.Variables[2].UpperBound, 1.0)
	tester.Eq(t, spec.Objective.Sense, Maximize)
	tester.Eq(t, spec.ModelType, ModelMixedIntegerLinear)
	tester.Eq(t, spec.Complexity, ComplexityLow)
}

func TestDecodeModelSpec_Errors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		path    string
	}{
		{"not json", `{"variables": [`, "$"},
		{"root array", `[1,2]`, "$"},
		{"missing variables", `{"constraints": [], "objective": {}}`, "variables"},
		{"empty variables", `{"variables": [], "constraints": [], "objective": {"sense":"min","expression":"1"}}`, "variables"},
		{
			"duplicate name",
			`{"variables": [
				{"name": "x", "kind": "continuous", "lower_bound": 0, "upper_bound": 1},
				{"name": "x", "kind": "continuous", "lower_bound": 0, "upper_bound": 1}
			], "constraints": [], "objective": {"sense":"min","expression":"x"}}`,
			"variables[1].name",
		},
		{
			"unknown kind",
			`{"variables": [{"name": "x", "kind": "complex", "lower_bound": 0, "upper_bound": 1}],
			 "constraints": [], "objective": {"sense":"min","expression":"x"}}`,
			"variables[0].kind",
		},
		{
			"inverted bounds",
			`{"variables": [{"name": "x", "kind": "continuous", "lower_bound": 5, "upper_bound": 1}],
			 "constraints": [], "objective": {"sense":"min","expression":"x"}}`,
			"variables[0]",
		},
		{
			"bad sense",
			`{"variables": [{"name": "x", "kind": "continuous", "lower_bound": 0, "upper_bound": 1}],
			 "constraints": [], "objective": {"sense":"optimize","expression":"x"}}`,
			"objective.sense",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := DecodeModelSpec(json.RawMessage(c.payload))
			var pe *ParseError
			tester.True(t, errors.As(err, &pe), c.name)
			tester.Eq(t, pe.Path, c.path)
		})
	}
}

func TestNewVariable(t *testing.T) {
	v, err := NewVariable("b", VarBinary, -3, 17, "")
	tester.NoErr(t, err)
	tester.Eq(t, v.LowerBound, 0.0)
	tester.Eq(t, v.UpperBound, 1.0)

	_, err = NewVariable("x", VarContinuous, 2, 1, "")
	tester.True(t, err != nil, "inverted bounds rejected")

	_, err = NewVariable("  ", VarContinuous, 0, 1, "")
	tester.True(t, err != nil, "blank name rejected")
}

func TestReportSummaryAndFailed(t *testing.T) {
	r := ValidationReport{Violations: []Violation{
		{Category: CategoryConstraint, Message: "constraint 0 violated"},
		{Category: CategoryBusiness, Message: "shares do not sum to 1"},
		{Category: CategoryBusiness, Message: "advisory only", Advisory: true},
	}}
	tester.Eq(t, len(r.Failed()), 2, "advisories are excluded")
	sum := r.Summary()
	tester.True(t, strings.Contains(sum, "constraint 0 violated"))
	tester.False(t, strings.Contains(sum, "advisory only"))
}
