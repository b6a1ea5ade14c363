package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a shape mismatch while converting the untyped JSON tree
// produced by the reasoning backend into a ModelSpec. Path points at the
// offending node, e.g. "variables[2].lower_bound".
type ParseError struct {
	Path string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("model payload: %s: %s", e.Path, e.Msg)
}

func parseErr(path, format string, args ...any) error {
	return &ParseError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// DecodeModelSpec converts raw backend JSON into a ModelSpec. The payload is
// first parsed into an untyped tree and then validated field by field, so a
// malformed shape surfaces as a typed ParseError instead of a decoding panic
// or a half-filled struct.
//
// Accepted shape:
//
//	{
//	  "variables":   [{"name","kind","lower_bound","upper_bound","description"}],
//	  "constraints": [{"expression","description"}],
//	  "objective":   {"sense","expression","description"},
//	  "model_type":  "linear" (optional)
//	}
//
// Bounds may arrive as JSON numbers or numeric strings; both are tolerated.
func DecodeModelSpec(raw json.RawMessage) (ModelSpec, error) {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return ModelSpec{}, parseErr("$", "not valid JSON: %v", err)
	}
	root, ok := tree.(map[string]any)
	if !ok {
		return ModelSpec{}, parseErr("$", "root must be an object, got %T", tree)
	}

	var spec ModelSpec

	varsRaw, ok := root["variables"]
	if !ok {
		return ModelSpec{}, parseErr("variables", "missing")
	}
	varsList, ok := varsRaw.([]any)
	if !ok {
		return ModelSpec{}, parseErr("variables", "must be an array, got %T", varsRaw)
	}
	seen := map[string]bool{}
	for i, vr := range varsList {
		path := fmt.Sprintf("variables[%d]", i)
		vm, ok := vr.(map[string]any)
		if !ok {
			return ModelSpec{}, parseErr(path, "must be an object, got %T", vr)
		}
		name, err := asString(vm["name"], path+".name")
		if err != nil {
			return ModelSpec{}, err
		}
		if seen[name] {
			return ModelSpec{}, parseErr(path+".name", "duplicate variable %q", name)
		}
		seen[name] = true
		kindStr, err := asString(vm["kind"], path+".kind")
		if err != nil {
			return ModelSpec{}, err
		}
		kind, err := normalizeKind(kindStr, path+".kind")
		if err != nil {
			return ModelSpec{}, err
		}
		lo, err := asFloat(vm["lower_bound"], path+".lower_bound")
		if err != nil {
			return ModelSpec{}, err
		}
		hi, err := asFloat(vm["upper_bound"], path+".upper_bound")
		if err != nil {
			return ModelSpec{}, err
		}
		desc, _ := vm["description"].(string)
		v, err := NewVariable(name, kind, lo, hi, desc)
		if err != nil {
			return ModelSpec{}, parseErr(path, "%v", err)
		}
		spec.Variables = append(spec.Variables, v)
	}
	if len(spec.Variables) == 0 {
		return ModelSpec{}, parseErr("variables", "at least one variable is required")
	}

	consRaw, ok := root["constraints"]
	if !ok {
		return ModelSpec{}, parseErr("constraints", "missing")
	}
	consList, ok := consRaw.([]any)
	if !ok {
		return ModelSpec{}, parseErr("constraints", "must be an array, got %T", consRaw)
	}
	for i, cr := range consList {
		path := fmt.Sprintf("constraints[%d]", i)
		cm, ok := cr.(map[string]any)
		if !ok {
			return ModelSpec{}, parseErr(path, "must be an object, got %T", cr)
		}
		expr, err := asString(cm["expression"], path+".expression")
		if err != nil {
			return ModelSpec{}, err
		}
		desc, _ := cm["description"].(string)
		spec.Constraints = append(spec.Constraints, Constraint{Expression: expr, Description: desc})
	}

	objRaw, ok := root["objective"]
	if !ok {
		return ModelSpec{}, parseErr("objective", "missing")
	}
	om, ok := objRaw.(map[string]any)
	if !ok {
		return ModelSpec{}, parseErr("objective", "must be an object, got %T", objRaw)
	}
	senseStr, err := asString(om["sense"], "objective.sense")
	if err != nil {
		return ModelSpec{}, err
	}
	sense, err := normalizeSense(senseStr)
	if err != nil {
		return ModelSpec{}, err
	}
	objExpr, err := asString(om["expression"], "objective.expression")
	if err != nil {
		return ModelSpec{}, err
	}
	objDesc, _ := om["description"].(string)
	spec.Objective = Objective{Sense: sense, Expression: objExpr, Description: objDesc}

	if mt, ok := root["model_type"].(string); ok {
		spec.ModelType = ModelType(strings.TrimSpace(strings.ToLower(mt)))
	}
	spec.Complexity = EstimateComplexity(len(spec.Variables), len(spec.Constraints))
	return spec, nil
}

func asString(v any, path string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", parseErr(path, "must be a string, got %T", v)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", parseErr(path, "must not be empty")
	}
	return s, nil
}

func asFloat(v any, path string) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, parseErr(path, "not a number: %v", err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, parseErr(path, "not a number: %q", x)
		}
		return f, nil
	default:
		return 0, parseErr(path, "must be a number, got %T", v)
	}
}

func normalizeKind(s, path string) (VarKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continuous", "real", "float":
		return VarContinuous, nil
	case "integer", "int":
		return VarInteger, nil
	case "binary", "bool", "boolean":
		return VarBinary, nil
	default:
		return "", parseErr(path, "unknown variable kind %q", s)
	}
}

func normalizeSense(s string) (Sense, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimize", "min", "minimise":
		return Minimize, nil
	case "maximize", "max", "maximise":
		return Maximize, nil
	default:
		return "", parseErr("objective.sense", "must be minimize or maximize, got %q", s)
	}
}
