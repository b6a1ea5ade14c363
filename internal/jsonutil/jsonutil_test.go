package jsonutil

import (
	"encoding/json"
	"testing"

	"optimind/internal/tester"
)

func TestExtractPayload_Fenced(t *testing.T) {
	raw := []byte("```json\n{\"a\": 1, \"b\": {\"c\": 2}}\n```")
	got, err := ExtractPayload(raw)
	tester.NoErr(t, err)
	tester.Eq(t, string(got), `{"a": 1, "b": {"c": 2}}`)
}

func TestExtractPayload_Prose(t *testing.T) {
	raw := []byte(`Here is the model you asked for: {"x": "ok"} hope that helps!`)
	got, err := ExtractPayload(raw)
	tester.NoErr(t, err)
	tester.Eq(t, string(got), `{"x": "ok"}`)
}

func TestExtractPayload_BracesInsideStrings(t *testing.T) {
	raw := []byte(`{"expr": "f({x})", "n": 1}`)
	got, err := ExtractPayload(raw)
	tester.NoErr(t, err)
	var v map[string]any
	tester.NoErr(t, json.Unmarshal(got, &v))
	tester.Eq(t, v["expr"], any("f({x})"))
}

func TestExtractPayload_EscapesBareNewlineInString(t *testing.T) {
	raw := []byte("{\"desc\": \"line one\nline two\"}")
	got, err := ExtractPayload(raw)
	tester.NoErr(t, err)
	var v map[string]string
	tester.NoErr(t, json.Unmarshal(got, &v))
	tester.Eq(t, v["desc"], "line one\nline two")
}

func TestExtractPayload_NoObject(t *testing.T) {
	_, err := ExtractPayload([]byte("sorry, I cannot do that"))
	tester.ErrIs(t, err, ErrNoPayload)

	_, err = ExtractPayload([]byte(`{"unbalanced": 1`))
	tester.ErrIs(t, err, ErrNoPayload)
}

func TestMarshalNoEscape(t *testing.T) {
	b, err := MarshalNoEscape(map[string]string{"expr": "x <= 1"})
	tester.NoErr(t, err)
	tester.Eq(t, string(b), `{"expr":"x <= 1"}`)
}

func TestUnmarshalFlex(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	tester.NoErr(t, UnmarshalFlex([]byte(`{"a": 7}`), &v))
	tester.Eq(t, v.A, 7)

	tester.NoErr(t, UnmarshalFlex([]byte("```\n{\"a\": 9}\n```"), &v))
	tester.Eq(t, v.A, 9)
}
