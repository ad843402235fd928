package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/blurcluster-mcp/internal/clustering"
	"github.com/ironsheep/blurcluster-mcp/internal/config"
	"github.com/ironsheep/blurcluster-mcp/internal/detection"
	"github.com/ironsheep/blurcluster-mcp/internal/hits"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "hits_load", "cluster_hits").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Resolves parameter overrides against the server configuration
//  3. Loads events from cache as needed
//  4. Calls the appropriate clustering/imaging function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Event Information
	case "hits_load":
		return s.handleHitsLoad(args)

	// Grid Operations
	case "grid_build":
		return s.handleGridBuild(args)
	case "kernel_info":
		return s.handleKernelInfo(args)

	// Clustering
	case "cluster_hits":
		return s.handleClusterHits(args)
	case "render_clusters":
		return s.handleRenderClusters(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments. Missing arguments decode as {}.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, v)
}

// alg builds a pipeline from the server configuration with overrides
// applied. Every pipeline shares the server's kernel cache.
func (s *Server) alg(overrides *config.TuningConfig) (*clustering.Alg, error) {
	p := overrides.Apply(s.tuning.Params())
	return clustering.New(p, clustering.WithKernelCache(s.kernels))
}

// eventHits loads path and returns its resolved hits, track hits excluded.
func (s *Server) eventHits(path string) (*hits.Event, []hits.Hit, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("path is required")
	}
	ev, err := s.events.Load(path)
	if err != nil {
		return nil, nil, err
	}
	hs, err := ev.Resolved()
	if err != nil {
		return nil, nil, err
	}
	return ev, hs, nil
}

// planeHits returns the hits of one plane of the event at path.
func (s *Server) planeHits(path string, plane int) ([]hits.Hit, error) {
	_, hs, err := s.eventHits(path)
	if err != nil {
		return nil, err
	}
	group, ok := hits.ByPlane(hs)[plane]
	if !ok {
		return nil, fmt.Errorf("event has no hits on plane %d", plane)
	}
	return group, nil
}

// === Event Information Handlers ===

type hitsLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleHitsLoad(args json.RawMessage) (interface{}, error) {
	var a hitsLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return hits.LoadEventInfo(s.events, a.Path)
}

// === Grid Operation Handlers ===

type gridBuildArgs struct {
	Path   string               `json:"path"`
	Plane  int                  `json:"plane"`
	Params *config.TuningConfig `json:"params,omitempty"`
}

// GridBuildResult describes the grids built for one plane.
type GridBuildResult struct {
	Plane      int               `json:"plane"`
	Hits       int               `json:"hits"`
	Collisions int               `json:"collisions"`
	Kernel     imaging.KernelKey `json:"kernel"`
	Raw        imaging.GridStats `json:"raw"`
	Blurred    imaging.GridStats `json:"blurred"`
}

func (s *Server) handleGridBuild(args json.RawMessage) (interface{}, error) {
	var a gridBuildArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	alg, err := s.alg(a.Params)
	if err != nil {
		return nil, err
	}
	hs, err := s.planeHits(a.Path, a.Plane)
	if err != nil {
		return nil, err
	}

	p := alg.Params()
	raw, cellHits, err := imaging.BuildGrid(hs, p.Margin())
	if err != nil {
		return nil, err
	}
	kernel, err := alg.Kernels().Get(p.KernelKey())
	if err != nil {
		return nil, err
	}
	blurred := imaging.Convolve(raw, kernel)

	return &GridBuildResult{
		Plane:      a.Plane,
		Hits:       len(hs),
		Collisions: cellHits.Collisions,
		Kernel:     kernel.Key,
		Raw:        raw.Stats(),
		Blurred:    blurred.Stats(),
	}, nil
}

type kernelInfoArgs struct {
	Params         *config.TuningConfig `json:"params,omitempty"`
	IncludeWeights bool                 `json:"include_weights"`
}

// KernelInfoResult describes the cached blur kernel.
type KernelInfoResult struct {
	Cached  bool               `json:"cached"`
	Key     *imaging.KernelKey `json:"key,omitempty"`
	Width   int                `json:"width,omitempty"`
	Height  int                `json:"height,omitempty"`
	Sum     float64            `json:"sum,omitempty"`
	Builds  int                `json:"builds"`
	Weights [][]float64        `json:"weights,omitempty"`
}

func (s *Server) handleKernelInfo(args json.RawMessage) (interface{}, error) {
	var a kernelInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Params != nil {
		alg, err := s.alg(a.Params)
		if err != nil {
			return nil, err
		}
		if _, err := s.kernels.Get(alg.Params().KernelKey()); err != nil {
			return nil, err
		}
	}

	result := &KernelInfoResult{Builds: s.kernels.Builds()}
	key, ok := s.kernels.Current()
	if !ok {
		return result, nil
	}
	k, err := s.kernels.Get(key)
	if err != nil {
		return nil, err
	}
	result.Cached = true
	result.Key = &k.Key
	result.Width = k.Width()
	result.Height = k.Height()
	result.Sum = k.Sum()
	if a.IncludeWeights {
		result.Weights = make([][]float64, k.Width())
		for i := range result.Weights {
			row := make([]float64, k.Height())
			for j := range row {
				row[j] = k.Weight(i-key.WireRadius, j-key.TickRadius)
			}
			result.Weights[i] = row
		}
	}
	return result, nil
}

// === Clustering Handlers ===

type clusterHitsArgs struct {
	Path        string               `json:"path"`
	Plane       *int                 `json:"plane,omitempty"`
	Params      *config.TuningConfig `json:"params,omitempty"`
	IncludeHits bool                 `json:"include_hits"`
}

// ClusterOutput is one emitted cluster.
type ClusterOutput struct {
	Plane  int        `json:"plane"`
	HitIDs []int      `json:"hit_ids"`
	Hits   []hits.Hit `json:"hits,omitempty"`
}

// ClusterHitsResult is the outcome of clustering an event.
type ClusterHitsResult struct {
	Run      int                     `json:"run"`
	Subrun   int                     `json:"subrun"`
	Event    int                     `json:"event"`
	Params   clustering.Params       `json:"params"`
	Planes   []clustering.PlaneStats `json:"planes"`
	Clusters []ClusterOutput         `json:"clusters"`
	Count    int                     `json:"count"`
}

func (s *Server) handleClusterHits(args json.RawMessage) (interface{}, error) {
	var a clusterHitsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	alg, err := s.alg(a.Params)
	if err != nil {
		return nil, err
	}
	ev, hs, err := s.eventHits(a.Path)
	if err != nil {
		return nil, err
	}
	if a.Plane != nil {
		group, ok := hits.ByPlane(hs)[*a.Plane]
		if !ok {
			return nil, fmt.Errorf("event has no hits on plane %d", *a.Plane)
		}
		hs = group
	}

	res, err := alg.ClusterEvent(context.Background(), hs)
	if err != nil {
		return nil, err
	}
	return summarize(ev, alg.Params(), res, a.IncludeHits), nil
}

// summarize converts an event run into its tool result.
func summarize(ev *hits.Event, p clustering.Params, res *clustering.EventResult, includeHits bool) *ClusterHitsResult {
	out := &ClusterHitsResult{
		Run:      ev.Run,
		Subrun:   ev.Subrun,
		Event:    ev.Event,
		Params:   p,
		Planes:   make([]clustering.PlaneStats, 0, len(res.Planes)),
		Clusters: make([]ClusterOutput, 0),
	}
	for _, pr := range res.Planes {
		out.Planes = append(out.Planes, pr.Stats())
		for _, c := range pr.HitClusters {
			co := ClusterOutput{Plane: pr.Plane, HitIDs: c.IDs()}
			if includeHits {
				co.Hits = c.Hits
			}
			out.Clusters = append(out.Clusters, co)
		}
	}
	out.Count = len(out.Clusters)
	return out
}

type renderClustersArgs struct {
	Path        string               `json:"path"`
	Plane       int                  `json:"plane"`
	Params      *config.TuningConfig `json:"params,omitempty"`
	Stage       string               `json:"stage"`
	Scale       int                  `json:"scale"`
	GridSpacing int                  `json:"grid_spacing"`
	GridColor   string               `json:"grid_color"`
	OutputPath  string               `json:"output_path"`
}

// RenderClustersResult is a rendered plane.
type RenderClustersResult struct {
	*imaging.RenderResult
	Plane      int    `json:"plane"`
	Stage      string `json:"stage"`
	Clusters   int    `json:"clusters"`
	OutputPath string `json:"output_path,omitempty"`
}

func (s *Server) handleRenderClusters(args json.RawMessage) (interface{}, error) {
	var a renderClustersArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Stage == "" {
		a.Stage = "blurred"
	}
	if a.Stage != "raw" && a.Stage != "blurred" {
		return nil, fmt.Errorf("invalid stage %q: must be raw or blurred", a.Stage)
	}

	opts := s.tuning.GetRenderOptions()
	if a.Scale > 0 {
		opts.Scale = a.Scale
	}
	if a.GridSpacing > 0 {
		opts.GridSpacing = a.GridSpacing
	}
	if a.GridColor != "" {
		opts.GridColor = a.GridColor
	}
	if opts.Scale > 64 {
		return nil, fmt.Errorf("scale must be at most 64, got %d", opts.Scale)
	}

	alg, err := s.alg(a.Params)
	if err != nil {
		return nil, err
	}
	hs, err := s.planeHits(a.Path, a.Plane)
	if err != nil {
		return nil, err
	}
	res, err := alg.ClusterPlane(hs)
	if err != nil {
		return nil, err
	}

	g := res.Blurred
	if a.Stage == "raw" {
		g = res.Raw
	}
	img := imaging.Render(g, detection.CellSets(res.Clusters), opts)

	if a.OutputPath != "" {
		if err := imaging.SavePNG(img, a.OutputPath); err != nil {
			return nil, err
		}
	}
	encoded, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return &RenderClustersResult{
		RenderResult: encoded,
		Plane:        a.Plane,
		Stage:        a.Stage,
		Clusters:     len(res.Clusters),
		OutputPath:   a.OutputPath,
	}, nil
}

// ClusterFile clusters every plane of the event at path with the server
// configuration, including full hit records in the result. With a non-empty
// renderPrefix each plane is also drawn to <renderPrefix>_plane<N>.png.
func (s *Server) ClusterFile(path, renderPrefix string) (*ClusterHitsResult, error) {
	alg, err := s.alg(nil)
	if err != nil {
		return nil, err
	}
	ev, hs, err := s.eventHits(path)
	if err != nil {
		return nil, err
	}
	res, err := alg.ClusterEvent(context.Background(), hs)
	if err != nil {
		return nil, err
	}

	if renderPrefix != "" {
		opts := s.tuning.GetRenderOptions()
		for _, pr := range res.Planes {
			img := imaging.Render(pr.Blurred, detection.CellSets(pr.Clusters), opts)
			out := fmt.Sprintf("%s_plane%d.png", renderPrefix, pr.Plane)
			if err := imaging.SavePNG(img, out); err != nil {
				return nil, err
			}
		}
	}
	return summarize(ev, alg.Params(), res, true), nil
}
