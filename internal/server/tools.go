package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema of the event file argument shared by all event tools.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the event JSON file",
}

// planeProperty is the schema of the readout plane argument.
var planeProperty = map[string]interface{}{
	"type":        "integer",
	"description": "Readout plane (view) to process",
}

// paramsProperty is the schema of per-call clustering parameter overrides.
// Omitted fields keep the server's configured values.
var paramsProperty = map[string]interface{}{
	"type":        "object",
	"description": "Optional clustering parameter overrides. Omitted fields use the server configuration.",
	"properties": map[string]interface{}{
		"blur_wire":              map[string]interface{}{"type": "integer", "description": "Blur kernel half-width in wires"},
		"blur_tick":              map[string]interface{}{"type": "integer", "description": "Blur kernel half-width in ticks"},
		"blur_sigma":             map[string]interface{}{"type": "number", "description": "Gaussian width of the blur kernel in bins"},
		"cluster_wire_distance":  map[string]interface{}{"type": "integer", "description": "Growth window half-width in wires"},
		"cluster_tick_distance":  map[string]interface{}{"type": "integer", "description": "Growth window half-width in ticks"},
		"neighbours_threshold":   map[string]interface{}{"type": "integer", "description": "In-cluster neighbours a cell needs to join"},
		"min_neighbours":         map[string]interface{}{"type": "integer", "description": "In-cluster neighbours a member needs to stay"},
		"min_size":               map[string]interface{}{"type": "integer", "description": "Minimum hits per emitted cluster"},
		"min_seed":               map[string]interface{}{"type": "number", "description": "Blurred value a seed must exceed"},
		"time_threshold":         map[string]interface{}{"type": "number", "description": "Largest tick distance from the dominant tick"},
		"charge_threshold":       map[string]interface{}{"type": "number", "description": "Smallest blurred value a member may have"},
		"min_merge_cluster_size": map[string]interface{}{"type": "integer", "description": "Cells both clusters need before merging is tried"},
		"merging_threshold":      map[string]interface{}{"type": "number", "description": "Collinearity a pair must exceed to merge (0.5 to 1.0)"},
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Event Information
		{
			Name:        "hits_load",
			Description: "Load an event file and summarize it: run/subrun/event numbers, hit counts, excluded track hits, and the wire/tick extent of each plane.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Grid Operations
		{
			Name:        "grid_build",
			Description: "Rasterize one plane's hits into a wire x tick grid and blur it. Returns statistics of the raw and blurred grids and the blur kernel used.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"plane":  planeProperty,
					"params": paramsProperty,
				},
				"required": []string{"path", "plane"},
			},
		},
		{
			Name:        "kernel_info",
			Description: "Report the currently cached blur kernel: its key, dimensions, how many times it has been rebuilt, and optionally its weights. Passing params builds the kernel they describe first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"params": paramsProperty,
					"include_weights": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the kernel weight table (rows are wires, columns are ticks). Default false",
						"default":     false,
					},
				},
			},
		},

		// Clustering
		{
			Name:        "cluster_hits",
			Description: "Run blurred clustering on an event. Returns the clusters of hits per plane with per-plane and per-cluster statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"plane": map[string]interface{}{
						"type":        "integer",
						"description": "Optional plane to restrict clustering to. Default: all planes",
					},
					"params": paramsProperty,
					"include_hits": map[string]interface{}{
						"type":        "boolean",
						"description": "Include full hit records instead of hit IDs only. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "render_clusters",
			Description: "Render one plane as a heat map with clustered cells colored per cluster. Returns a base64-encoded PNG; wires run left to right and ticks bottom to top.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"plane":  planeProperty,
					"params": paramsProperty,
					"stage": map[string]interface{}{
						"type":        "string",
						"description": "Grid to draw underneath the clusters",
						"enum":        []string{"raw", "blurred"},
						"default":     "blurred",
					},
					"scale": map[string]interface{}{
						"type":        "integer",
						"description": "Output pixels per bin. Default from server configuration (4)",
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw bin grid lines every N bins. Default 0 (no lines)",
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color in hex (#RRGGBB or #RRGGBBAA). Default #FF000080",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file path to also write the PNG to",
					},
				},
				"required": []string{"path", "plane"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
