package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns a deterministic, minimal model payload for offline runs
// and tests. The canned spec is a two-variable production plan so the whole
// pipeline (decode, validate, select, solve) exercises realistically.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "fake" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	obj := map[string]any{
		"variables": []any{
			map[string]any{
				"name": "x1", "kind": "continuous",
				"lower_bound": 0.0, "upper_bound": 100.0,
				"description": "units of product A",
			},
			map[string]any{
				"name": "x2", "kind": "continuous",
				"lower_bound": 0.0, "upper_bound": 100.0,
				"description": "units of product B",
			},
		},
		"constraints": []any{
			map[string]any{"expression": "2*x1 + 3*x2 <= 120", "description": "machine hours"},
			map[string]any{"expression": "x1 + x2 <= 50", "description": "labor hours"},
		},
		"objective": map[string]any{
			"sense":       "maximize",
			"expression":  "40*x1 + 30*x2",
			"description": "total profit",
		},
		"model_type": "linear",
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}
