package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"hits_load",
		"grid_build",
		"kernel_info",
		"cluster_hits",
		"render_clusters",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("tool %s defined twice", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("Tool count: got %d, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	tools := GetToolDefinitions()

	for _, tool := range tools {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema == nil {
				t.Fatal("Tool InputSchema is nil")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			if _, ok := tool.InputSchema["properties"].(map[string]interface{}); !ok {
				t.Error("InputSchema properties should be a map")
			}
		})
	}
}

func TestToolDefinitions_Required(t *testing.T) {
	want := map[string][]string{
		"hits_load":       {"path"},
		"grid_build":      {"path", "plane"},
		"cluster_hits":    {"path"},
		"render_clusters": {"path", "plane"},
	}

	for _, tool := range GetToolDefinitions() {
		names, ok := want[tool.Name]
		if !ok {
			if _, has := tool.InputSchema["required"]; has {
				t.Errorf("%s: expected no required arguments", tool.Name)
			}
			continue
		}
		required, _ := tool.InputSchema["required"].([]string)
		if len(required) != len(names) {
			t.Errorf("%s: required %v, want %v", tool.Name, required, names)
			continue
		}
		for i := range names {
			if required[i] != names[i] {
				t.Errorf("%s: required %v, want %v", tool.Name, required, names)
			}
		}
	}
}

func TestToolDefinitions_ParamsOverrides(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name == "hits_load" {
			continue
		}
		props := tool.InputSchema["properties"].(map[string]interface{})
		params, ok := props["params"].(map[string]interface{})
		if !ok {
			t.Errorf("%s: missing params override", tool.Name)
			continue
		}
		fields := params["properties"].(map[string]interface{})
		for _, name := range []string{"blur_wire", "blur_tick", "blur_sigma", "min_seed", "merging_threshold"} {
			if _, ok := fields[name]; !ok {
				t.Errorf("%s: params missing %s", tool.Name, name)
			}
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := New(nil)
	req := &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
	}

	resp := s.handleToolsList(req)

	if resp == nil {
		t.Fatal("handleToolsList returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}

	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}

	toolsList, ok := result["tools"].([]Tool)
	if !ok {
		t.Fatal("tools should be a slice of Tool")
	}

	expected := GetToolDefinitions()
	if len(toolsList) != len(expected) {
		t.Errorf("Tool count: got %d, want %d", len(toolsList), len(expected))
	}
}
