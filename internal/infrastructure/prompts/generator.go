package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"text/template"

	"gp-intake-checker/internal/domain/entity"
)

type ToolInfo struct {
	Name        string
	Description string
}

type SystemPromptData struct {
	Tools  []ToolInfo
	Schema string
}

// SystemPrompt renders the agent system prompt listing tools and the output
// schema. Tools are listed by name so the prompt is stable across runs.
func SystemPrompt(tools []entity.ToolDefinition, schema map[string]any) (string, error) {
	return GenerateSystemPrompt(SystemPromptTemplate, tools, schema)
}

func GenerateSystemPrompt(baseTemplate string, tools []entity.ToolDefinition, schema map[string]any) (string, error) {
	infos := make([]ToolInfo, 0, len(tools))
	for _, t := range tools {
		infos = append(infos, ToolInfo{
			Name:        string(t.Name),
			Description: t.Description,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})

	data := SystemPromptData{Tools: infos}
	if len(schema) > 0 {
		raw, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode output schema: %w", err)
		}
		data.Schema = string(raw)
	}

	tmpl, err := template.New("system").Parse(baseTemplate)
	if err != nil {
		return "", fmt.Errorf("parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt template: %w", err)
	}
	return buf.String(), nil
}
