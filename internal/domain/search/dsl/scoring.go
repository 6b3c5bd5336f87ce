package dsl

import "encoding/json"

// ScoringFunction is one entry of a function_score query.
type ScoringFunction interface {
	json.Marshaler
	FunctionKind() string
}

// ScriptScore scores with an inline script.
type ScriptScore struct {
	Source string
	Params map[string]any
}

// FunctionKind implements ScoringFunction.
func (ScriptScore) FunctionKind() string { return "script_score" }

// MarshalJSON implements json.Marshaler.
func (f ScriptScore) MarshalJSON() ([]byte, error) {
	script := map[string]any{"source": f.Source}
	if len(f.Params) > 0 {
		script["params"] = f.Params
	}
	return json.Marshal(map[string]any{"script_score": map[string]any{"script": script}})
}

// WeightFilter adds Weight to documents matching Filter.
type WeightFilter struct {
	Filter Query
	Weight float64
}

// FunctionKind implements ScoringFunction.
func (WeightFilter) FunctionKind() string { return "weight" }

// MarshalJSON implements json.Marshaler.
func (f WeightFilter) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"filter": f.Filter, "weight": f.Weight})
}

// FieldValueFactor scores by a numeric document field.
type FieldValueFactor struct {
	Field    string
	Factor   float64
	Modifier string
	Missing  float64
}

// FunctionKind implements ScoringFunction.
func (FieldValueFactor) FunctionKind() string { return "field_value_factor" }

// MarshalJSON implements json.Marshaler.
func (f FieldValueFactor) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"field_value_factor": map[string]any{
		"field":    f.Field,
		"factor":   f.Factor,
		"modifier": f.Modifier,
		"missing":  f.Missing,
	}})
}

// RandomScore adds a seeded pseudo-random score.
type RandomScore struct {
	Seed   int64
	Field  string
	Weight float64
}

// FunctionKind implements ScoringFunction.
func (RandomScore) FunctionKind() string { return "random_score" }

// MarshalJSON implements json.Marshaler.
func (f RandomScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"random_score": map[string]any{"seed": f.Seed, "field": f.Field},
		"weight":       f.Weight,
	})
}
