package model

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCloneCopiesNestedValues(t *testing.T) {
	orig := Content{Role: RoleModel, Parts: []Part{{
		FunctionCall: &FunctionCall{Name: "getWeather", Args: map[string]any{
			"opts":  map[string]any{"k": "v"},
			"list":  []any{map[string]any{"n": 1.0}},
			"bsonA": primitive.A{"x"},
			"bsonD": primitive.D{{Key: "inner", Value: map[string]any{"k": "v"}}},
			"bsonM": primitive.M{"k": "v"},
		}},
	}, {
		FunctionResponse: &FunctionResponse{Name: "getWeather", Response: map[string]any{
			"nested": map[string]any{"temp": 21.5},
		}},
	}}}

	clone := orig.Clone()
	args := clone.Parts[0].FunctionCall.Args
	args["opts"].(map[string]any)["k"] = "MUTATED"
	args["list"].([]any)[0].(map[string]any)["n"] = 2.0
	args["bsonA"].(primitive.A)[0] = "y"
	args["bsonD"].(primitive.D)[0].Value.(map[string]any)["k"] = "MUTATED"
	args["bsonM"].(primitive.M)["k"] = "MUTATED"
	clone.Parts[1].FunctionResponse.Response["nested"].(map[string]any)["temp"] = 0.0

	got := orig.Parts[0].FunctionCall.Args
	if got["opts"].(map[string]any)["k"] != "v" {
		t.Errorf("nested map shared: %v", got["opts"])
	}
	if got["list"].([]any)[0].(map[string]any)["n"] != 1.0 {
		t.Errorf("nested slice shared: %v", got["list"])
	}
	if got["bsonA"].(primitive.A)[0] != "x" {
		t.Errorf("primitive.A shared: %v", got["bsonA"])
	}
	if got["bsonD"].(primitive.D)[0].Value.(map[string]any)["k"] != "v" {
		t.Errorf("primitive.D shared: %v", got["bsonD"])
	}
	if got["bsonM"].(primitive.M)["k"] != "v" {
		t.Errorf("primitive.M shared: %v", got["bsonM"])
	}
	if orig.Parts[1].FunctionResponse.Response["nested"].(map[string]any)["temp"] != 21.5 {
		t.Errorf("nested response shared: %v", orig.Parts[1].FunctionResponse.Response)
	}
}

func TestCloneContentsNil(t *testing.T) {
	if CloneContents(nil) != nil {
		t.Error("CloneContents(nil) should stay nil")
	}
	if got := CloneContents([]Content{}); got == nil || len(got) != 0 {
		t.Errorf("CloneContents(empty) = %v", got)
	}
}
