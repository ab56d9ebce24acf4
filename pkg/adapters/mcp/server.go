// Package mcp exposes the manipulation operations as Model Context Protocol
// tools, so agents can assemble a robot and its environment.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/manipd/internal/logging"
	"github.com/aretw0/manipd/pkg/domain"
	"github.com/aretw0/manipd/pkg/manipulation"
	"github.com/aretw0/manipd/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	// ProblemURI is the resource describing the edited problem.
	ProblemURI = "manipd://problem"
	// TreeURI is the kinematic tree of the robot as a Mermaid flowchart.
	TreeURI = "manipd://problem/tree"
)

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status" jsonschema_description:"Always ok on success"`
}

// PositionResponse carries a placement as [x y z qx qy qz qw].
type PositionResponse struct {
	Position []float64 `json:"position" jsonschema_description:"Translation then quaternion xyzw"`
}

// NamesResponse lists element names.
type NamesResponse struct {
	Names []string `json:"names"`
}

// RootJointArgs names a model and, for writes, its new placement.
type RootJointArgs struct {
	Name     string    `json:"name"`
	Position []float64 `json:"position,omitempty"`
}

// FrameArgs describes a handle or gripper to attach.
type FrameArgs struct {
	Body            string    `json:"body"`
	Name            string    `json:"name"`
	Position        []float64 `json:"position"`
	CollisionBodies []string  `json:"collision_bodies,omitempty"`
}

// AvailableArgs selects the kind of element to list.
type AvailableArgs struct {
	What string `json:"what"`
}

// ContactArgs names a contact surface.
type ContactArgs struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Server wraps a manipulation service as an MCP server.
type Server struct {
	svc       *manipulation.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for the Server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server over svc.
func NewServer(svc *manipulation.Service, version string, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
		mcpServer: server.NewMCPServer("manipd-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to handle raw messages.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler returns the /sse and /message endpoints. An empty baseURL
// advertises a relative message endpoint.
func (s *Server) SSEHandler(baseURL string) http.Handler {
	var opts []server.SSEOption
	if baseURL != "" {
		opts = append(opts, server.WithBaseURL(baseURL))
	}
	sseServer := server.NewSSEServer(s.mcpServer, opts...)

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	return mux
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func modelTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the grafted model; prefixes every joint and frame")),
		mcp.WithString("root_joint_type", mcp.Required(), mcp.Description("anchor, freeflyer, planar, revolute or prismatic")),
		mcp.WithString("package", mcp.Required(), mcp.Description("Package holding the model files")),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model file name without suffix")),
		mcp.WithString("urdf_suffix", mcp.Description("Suffix of the structure file")),
		mcp.WithString("srdf_suffix", mcp.Description("Suffix of the semantic file")),
		mcp.WithOutputSchema[StatusResponse](),
	)
}

func positionParam(required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{
		mcp.Description("Placement as [x, y, z, qx, qy, qz, qw]"),
		mcp.Items(map[string]any{"type": "number"}),
	}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithArray("position", opts...)
}

func frameTool(name, description string, gripper bool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithString("body", mcp.Required(), mcp.Description("Body the frame is attached to")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Frame name, unique in the robot")),
		positionParam(true),
		mcp.WithOutputSchema[StatusResponse](),
	}
	if gripper {
		opts = append(opts, mcp.WithArray("collision_bodies",
			mcp.Description("Bodies exempted from collision checks while the gripper is active"),
			mcp.Items(map[string]any{"type": "string"}),
		))
	}
	return mcp.NewTool(name, opts...)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(modelTool("insert_robot_model", "Load a robot model and graft it under the root joint."),
		mcp.NewStructuredToolHandler(s.insert(s.svc.InsertRobotModel)))
	s.mcpServer.AddTool(modelTool("insert_object_model", "Load an object model and graft it under the root joint."),
		mcp.NewStructuredToolHandler(s.insert(s.svc.InsertObjectModel)))
	s.mcpServer.AddTool(modelTool("insert_humanoid_model", "Load a humanoid model and graft it under the root joint."),
		mcp.NewStructuredToolHandler(s.insert(s.svc.InsertHumanoidModel)))

	s.mcpServer.AddTool(mcp.NewTool("load_environment_model",
		mcp.WithDescription("Load an environment and inject its collision objects as obstacles named prefix + name."),
		mcp.WithString("package", mcp.Required(), mcp.Description("Package holding the model files")),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model file name without suffix")),
		mcp.WithString("prefix", mcp.Required(), mcp.Description("Prefix of every obstacle name")),
		mcp.WithString("urdf_suffix", mcp.Description("Suffix of the structure file")),
		mcp.WithString("srdf_suffix", mcp.Description("Suffix of the semantic file")),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleLoadEnvironment))

	s.mcpServer.AddTool(mcp.NewTool("get_root_joint_position",
		mcp.WithDescription("Get the placement of a model root joint relative to the robot root."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name the model was inserted under")),
		mcp.WithOutputSchema[PositionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetRootJointPosition))

	s.mcpServer.AddTool(mcp.NewTool("set_root_joint_position",
		mcp.WithDescription("Move a model by setting its root joint placement."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name the model was inserted under")),
		positionParam(true),
		mcp.WithOutputSchema[StatusResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetRootJointPosition))

	s.mcpServer.AddTool(frameTool("add_handle", "Attach a handle to a body.", false),
		mcp.NewStructuredToolHandler(s.attach(s.svc.AddHandle)))
	s.mcpServer.AddTool(frameTool("add_axial_handle", "Attach a handle symmetric about its x axis to a body.", false),
		mcp.NewStructuredToolHandler(s.attach(s.svc.AddAxialHandle)))
	s.mcpServer.AddTool(frameTool("add_gripper", "Attach a gripper to a body.", true),
		mcp.NewStructuredToolHandler(s.handleAddGripper))

	s.mcpServer.AddTool(mcp.NewTool("get_available",
		mcp.WithDescription("List names of one kind of element. Call with type to list the kinds."),
		mcp.WithString("what", mcp.Required(), mcp.Description("Kind of element, e.g. joint, handle or robotcontact")),
		mcp.WithOutputSchema[NamesResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetAvailable))

	s.mcpServer.AddTool(mcp.NewTool("get_contact",
		mcp.WithDescription("Get a contact surface with its triangles in the world frame."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("robotcontact or envcontact")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Contact name as listed by get_available")),
		mcp.WithOutputSchema[manipulation.ContactView](),
	), mcp.NewStructuredToolHandler(s.handleGetContact))
}

// toolError keeps the error kind in the text returned to the agent.
func (s *Server) toolError(tool string, err error) error {
	s.logger.Warn("MCP tool failed", "tool", tool, "err", err)
	return fmt.Errorf("%s: %w", domain.KindOf(err), err)
}

var statusOK = StatusResponse{Status: "ok"}

func (s *Server) insert(fn func(context.Context, ports.ModelRequest) error) func(context.Context, mcp.CallToolRequest, ports.ModelRequest) (StatusResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ports.ModelRequest) (StatusResponse, error) {
		if err := fn(ctx, args); err != nil {
			return StatusResponse{}, s.toolError(request.Params.Name, err)
		}
		return statusOK, nil
	}
}

func (s *Server) handleLoadEnvironment(ctx context.Context, request mcp.CallToolRequest, args ports.EnvironmentRequest) (StatusResponse, error) {
	if err := s.svc.LoadEnvironmentModel(ctx, args); err != nil {
		return StatusResponse{}, s.toolError(request.Params.Name, err)
	}
	return statusOK, nil
}

func (s *Server) handleGetRootJointPosition(ctx context.Context, request mcp.CallToolRequest, args RootJointArgs) (PositionResponse, error) {
	pos, err := s.svc.GetRootJointPosition(ctx, args.Name)
	if err != nil {
		return PositionResponse{}, s.toolError(request.Params.Name, err)
	}
	return PositionResponse{Position: pos[:]}, nil
}

func (s *Server) handleSetRootJointPosition(ctx context.Context, request mcp.CallToolRequest, args RootJointArgs) (StatusResponse, error) {
	if err := s.svc.SetRootJointPosition(ctx, args.Name, args.Position); err != nil {
		return StatusResponse{}, s.toolError(request.Params.Name, err)
	}
	return statusOK, nil
}

func (s *Server) attach(fn func(context.Context, string, string, []float64) error) func(context.Context, mcp.CallToolRequest, FrameArgs) (StatusResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args FrameArgs) (StatusResponse, error) {
		if err := fn(ctx, args.Body, args.Name, args.Position); err != nil {
			return StatusResponse{}, s.toolError(request.Params.Name, err)
		}
		return statusOK, nil
	}
}

func (s *Server) handleAddGripper(ctx context.Context, request mcp.CallToolRequest, args FrameArgs) (StatusResponse, error) {
	if err := s.svc.AddGripper(ctx, args.Body, args.Name, args.Position, args.CollisionBodies); err != nil {
		return StatusResponse{}, s.toolError(request.Params.Name, err)
	}
	return statusOK, nil
}

func (s *Server) handleGetAvailable(ctx context.Context, request mcp.CallToolRequest, args AvailableArgs) (NamesResponse, error) {
	names, err := s.svc.GetAvailable(ctx, args.What)
	if err != nil {
		return NamesResponse{}, s.toolError(request.Params.Name, err)
	}
	return NamesResponse{Names: names}, nil
}

func (s *Server) handleGetContact(ctx context.Context, request mcp.CallToolRequest, args ContactArgs) (manipulation.ContactView, error) {
	c, err := s.svc.GetContact(ctx, args.Kind, args.Name)
	if err != nil {
		return manipulation.ContactView{}, s.toolError(request.Params.Name, err)
	}
	return c, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ProblemURI, "Edited planning problem",
		mcp.WithResourceDescription("Models, frames, obstacles and constraint graph of the problem"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		snap, err := s.svc.Describe(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe problem: %w", err)
		}
		jsonBytes, err := json.Marshal(snap)
		if err != nil {
			return nil, err
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ProblemURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(TreeURI, "Kinematic tree",
		mcp.WithResourceDescription("Joints, handles and grippers of the robot as a Mermaid flowchart"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tree, err := s.svc.KinematicTree(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", domain.KindOf(err), err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      TreeURI,
				MIMEType: "text/vnd.mermaid",
				Text:     tree,
			},
		}, nil
	})
}
