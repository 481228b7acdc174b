package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ToolHandler executes one tool call. The returned map is the tool's result
// payload; failures are reported as an {"error": ...} entry rather than a Go
// error, so a misbehaving provider can never abort the resolution loop.
type ToolHandler func(ctx context.Context, args map[string]string) map[string]string

// ToolParam describes one named string parameter of a tool.
type ToolParam struct {
	Name        string
	Description string
}

// ToolSpec declares a tool: how it is presented to the model and how it runs.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ToolParam
	Handler     ToolHandler
}

// Registry holds the tools available to the model for a session.
type Registry struct {
	order []string
	tools map[string]ToolSpec
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]ToolSpec)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(spec ToolSpec) error {
	if spec.Name == "" {
		return errors.New("tool name is required")
	}
	if spec.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", spec.Name)
	}
	if _, ok := r.tools[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.Name)
	}
	r.tools[spec.Name] = spec
	r.order = append(r.order, spec.Name)
	return nil
}

// Specs renders the registered tools in the wire format sent to the API,
// in registration order.
func (r *Registry) Specs() []Tool {
	specs := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		spec := r.tools[name]
		properties := make(map[string]any, len(spec.Params))
		required := make([]string, 0, len(spec.Params))
		for _, param := range spec.Params {
			properties[param.Name] = map[string]any{
				"type":        "string",
				"description": param.Description,
			}
			required = append(required, param.Name)
		}
		specs = append(specs, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": properties,
					"required":   required,
				},
			},
		})
	}
	return specs
}

// Execute runs the tool named by the call and wraps its payload into a
// ToolResult. Unknown tools and undecodable arguments become error payloads.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	args := decodeArgs(call.Function.Arguments)
	result := ToolResult{
		ToolCallID: call.ID,
		ToolName:   call.Function.Name,
		Args:       args,
	}

	spec, ok := r.tools[call.Function.Name]
	if !ok {
		result.Result = map[string]string{"error": "unknown tool: " + call.Function.Name}
		return result
	}

	result.Result = spec.Handler(ctx, args)
	return result
}

// decodeArgs flattens the wire's JSON argument object into string values.
// The schema only declares string parameters, but a permissive decode keeps a
// model that sends numbers from breaking the loop.
func decodeArgs(raw string) map[string]string {
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return map[string]string{}
	}
	args := make(map[string]string, len(generic))
	for key, value := range generic {
		switch v := value.(type) {
		case string:
			args[key] = v
		case float64:
			args[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			args[key] = strconv.FormatBool(v)
		default:
			encoded, _ := json.Marshal(v)
			args[key] = string(encoded)
		}
	}
	return args
}

// BuiltinTools returns the registry with the two weather tools wired to the
// given providers.
func BuiltinTools(providers *Providers) *Registry {
	registry := NewRegistry()
	registry.Register(ToolSpec{
		Name:        "get_weather",
		Description: "Get current weather conditions",
		Params: []ToolParam{
			{Name: "latitude", Description: "The latitude of the place we are querying weather data."},
			{Name: "longitude", Description: "The longitude of the place we are querying weather data."},
		},
		Handler: func(ctx context.Context, args map[string]string) map[string]string {
			reading, err := providers.FetchWeather(ctx, args["latitude"], args["longitude"])
			if err != nil {
				var fetchErr *FetchError
				if errors.As(err, &fetchErr) {
					return map[string]string{"error": "Failed to fetch weather data: " + fetchErr.Err.Error()}
				}
				return map[string]string{"error": "Unable to fetch weather data"}
			}
			return reading
		},
	})
	registry.Register(ToolSpec{
		Name:        "get_coordinates",
		Description: "Resolve a place name to its latitude and longitude",
		Params: []ToolParam{
			{Name: "place", Description: "The city to get weather for"},
		},
		Handler: func(ctx context.Context, args map[string]string) map[string]string {
			coords, err := providers.FetchCoordinates(ctx, args["place"])
			if err != nil {
				var fetchErr *FetchError
				if errors.As(err, &fetchErr) {
					return map[string]string{"error": "Failed to fetch coordinates data: " + fetchErr.Err.Error()}
				}
				return map[string]string{"error": "Failed to fetch coordinates data"}
			}
			return map[string]string{
				"latitude":  strconv.FormatFloat(coords.Latitude, 'f', -1, 64),
				"longitude": strconv.FormatFloat(coords.Longitude, 'f', -1, 64),
			}
		},
	})
	return registry
}
