package service

import (
	"sort"

	"gp-intake-checker/internal/application/port/output"
	"gp-intake-checker/internal/domain/entity"
)

var _ output.ToolRegistry = (*ToolRegistryImpl)(nil)

type ToolRegistryImpl struct {
	tools map[entity.ToolName]output.ToolPort
}

func NewToolRegistry(tools ...output.ToolPort) *ToolRegistryImpl {
	r := &ToolRegistryImpl{
		tools: make(map[entity.ToolName]output.ToolPort, len(tools)),
	}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *ToolRegistryImpl) Register(tool output.ToolPort) {
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistryImpl) Get(name entity.ToolName) (output.ToolPort, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns the registered tools sorted by name so prompts stay stable between runs.
func (r *ToolRegistryImpl) All() []output.ToolPort {
	result := make([]output.ToolPort, 0, len(r.tools))
	for _, tool := range r.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}

func (r *ToolRegistryImpl) Definitions() []entity.ToolDefinition {
	tools := r.All()
	result := make([]entity.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		result = append(result, entity.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Parameters(),
		})
	}
	return result
}
