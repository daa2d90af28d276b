package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"image_load",
		"image_dimensions",
		"image_resize",
		"image_geometry",
		"image_pool_stats",
		"image_pool_clear",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("Duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// every required key must be a declared property
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required %q is not a property", r)
					}
				}
			}

			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_ResizeProperties(t *testing.T) {
	var resize Tool
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "image_resize" {
			resize = tool
		}
	}

	props := resize.InputSchema["properties"].(map[string]interface{})
	for _, key := range []string{"path", "policy", "width", "height", "scale_x", "scale_y", "padding", "background", "region", "trim", "format", "quality", "stages", "resampler", "output_path"} {
		if _, ok := props[key]; !ok {
			t.Errorf("image_resize missing property %s", key)
		}
	}

	policy := props["policy"].(map[string]interface{})
	enum := policy["enum"].([]string)
	if len(enum) != 5 {
		t.Errorf("policy enum: got %v", enum)
	}

	resampler := props["resampler"].(map[string]interface{})
	if names := resampler["enum"].([]string); len(names) < 2 {
		t.Errorf("resampler enum: got %v", names)
	}
}

func TestFitProperties_Independent(t *testing.T) {
	a := fitProperties()
	a["extra"] = true
	if _, ok := fitProperties()["extra"]; ok {
		t.Error("fitProperties should return a fresh map each call")
	}
}
