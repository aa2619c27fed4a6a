// Package mcp exposes a devtools.Recorder's event history to AI agents over
// the Model Context Protocol. Every resource and tool registered here is
// read-only: there is no tool that invokes an action or mutates a
// component, only ones that read or export already-recorded history.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cerebralia/fluxcore/devtools"
)

// Server is a read-only MCP server backed by a devtools.Recorder.
type Server struct {
	server   *mcp.Server
	recorder *devtools.Recorder

	// sessionID identifies this server instance across subscriptions and
	// log lines; it has no protocol meaning beyond that.
	sessionID string
}

// NewServer creates and wires an MCP server exposing rec's event history.
// The server is constructed but not started. Server exposes no method that
// runs it over a transport: the wrapped SDK server is unexported.
func NewServer(rec *devtools.Recorder) (*Server, error) {
	if rec == nil {
		return nil, fmt.Errorf("mcp: recorder cannot be nil")
	}

	impl := &mcp.Implementation{
		Name:    "fluxcore-devtools",
		Version: "1.0.0",
	}
	mcpServer := mcp.NewServer(impl, &mcp.ServerOptions{})

	s := &Server{
		server:    mcpServer,
		recorder:  rec,
		sessionID: uuid.NewString(),
	}

	s.registerEventLogResource()
	s.registerSearchEventsTool()
	s.registerExportSnapshotTool()

	return s, nil
}

// SessionID identifies this server instance.
func (s *Server) SessionID() string { return s.sessionID }

func (s *Server) registerEventLogResource() {
	s.server.AddResource(
		&mcp.Resource{
			URI:         "fluxcore://events/log",
			Name:        "event-log",
			Description: "Every event recorded so far, oldest first",
			MIMEType:    "application/json",
		},
		s.handleEventLogResource,
	)
}

func (s *Server) handleEventLogResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	events := s.recorder.Events()
	body, err := json.MarshalIndent(struct {
		Events    []devtools.EventRecord `json:"events"`
		Count     int                    `json:"count"`
		Timestamp time.Time              `json:"timestamp"`
	}{events, len(events), time.Now()}, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{URI: req.Params.URI, MIMEType: "application/json", Text: string(body)},
		},
	}, nil
}

func (s *Server) registerSearchEventsTool() {
	tool := &mcp.Tool{
		Name:        "search_events",
		Description: "Search the recorded event log by component ID or event type substring",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Substring to match against component ID or event type",
				},
			},
			"required": []string{"query"},
		},
	}
	s.server.AddTool(tool, s.handleSearchEventsTool)
}

func (s *Server) handleSearchEventsTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := unmarshalArguments(req, &args); err != nil {
		return textError(err), nil
	}
	matches := s.recorder.Search(args.Query)
	body, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return textError(err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
	}, nil
}

func (s *Server) registerExportSnapshotTool() {
	tool := &mcp.Tool{
		Name:        "export_snapshot",
		Description: "Export the full recorded event log as a JSON document",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}
	s.server.AddTool(tool, s.handleExportSnapshotTool)
}

func (s *Server) handleExportSnapshotTool(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.recorder.Export()
	if err != nil {
		return textError(err), nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

func unmarshalArguments(req *mcp.CallToolRequest, out interface{}) error {
	return json.Unmarshal(req.Params.Arguments, out)
}

func textError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}
