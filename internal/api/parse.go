package api

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	apierrors "github.com/diogo/qsemantic/internal/errors"
	"github.com/diogo/qsemantic/internal/models"
)

// ParseQuantumResponse decodes the model's JSON text into a QuantumResponse.
// The shape is checked field by field so a mismatch is reported as a
// SchemaError rather than silently zeroed. Missing metric fields decode as
// zero; qubitStates is padded or truncated to QubitCount and never normalized,
// and stays nil when absent so the default distribution is displayed.
func ParseQuantumResponse(text string) (models.QuantumResponse, error) {
	text = stripCodeFence(strings.TrimSpace(text))
	if text == "" {
		return models.QuantumResponse{}, apierrors.ErrNoContent
	}
	if !gjson.Valid(text) {
		return models.QuantumResponse{}, apierrors.NewParseError("response is not valid JSON", "")
	}

	root := gjson.Parse(text)
	if err := checkShape(root); err != nil {
		return models.QuantumResponse{}, err
	}

	var resp models.QuantumResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return models.QuantumResponse{}, apierrors.NewParseError(err.Error(), "")
	}

	resp.Stats.QubitStates = fitQubits(resp.Stats.QubitStates)
	return resp, nil
}

func checkShape(root gjson.Result) error {
	if !root.IsObject() {
		return apierrors.NewSchemaError("$", "an object")
	}
	if root.Get("response").Type != gjson.String {
		return apierrors.NewSchemaError("response", "a string")
	}

	stats := root.Get("stats")
	if !stats.IsObject() {
		return apierrors.NewSchemaError("stats", "an object")
	}
	for _, field := range []string{"entanglement", "entropy", "superposition"} {
		if err := checkOptionalNumber(stats, field, "stats."+field); err != nil {
			return err
		}
	}

	if qubits := stats.Get("qubitStates"); qubits.Exists() {
		if !qubits.IsArray() {
			return apierrors.NewSchemaError("stats.qubitStates", "an array")
		}
		for _, v := range qubits.Array() {
			if v.Type != gjson.Number {
				return apierrors.NewSchemaError("stats.qubitStates", "an array of numbers")
			}
		}
	}

	if vec := stats.Get("semanticVector"); vec.Exists() {
		if !vec.IsObject() {
			return apierrors.NewSchemaError("stats.semanticVector", "an object")
		}
		for _, axis := range []string{"x", "y", "z"} {
			if err := checkOptionalNumber(vec, axis, "stats.semanticVector."+axis); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkOptionalNumber(obj gjson.Result, key, path string) error {
	v := obj.Get(key)
	if v.Exists() && v.Type != gjson.Number {
		return apierrors.NewSchemaError(path, "a number")
	}
	return nil
}

func fitQubits(states []float64) []float64 {
	if len(states) == 0 {
		return nil
	}
	out := make([]float64, models.QubitCount)
	copy(out, states)
	return out
}

// stripCodeFence removes a ```json ... ``` wrapper some models add
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
