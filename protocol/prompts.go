package protocol

import "github.com/troupe-ai/troupe/core"

// PromptTemplate is one example invocation a client can show during
// discovery: a natural-language prompt together with the tool it maps to.
type PromptTemplate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Tool        string `json:"tool"`
	Template    string `json:"template"`
}

// categoryTemplates is the static discovery catalog keyed by tool category.
// Categories without an entry fall back to a generic invocation template.
var categoryTemplates = map[string][]string{
	"accounts": {
		"What is the current state of {subject}?",
		"Show me the details for {subject}.",
	},
	"transactions": {
		"Send {amount} to {recipient}.",
		"List my recent activity.",
	},
	"compliance": {
		"Is {subject} allowed under the current policy?",
	},
	"general": {
		"Help me with {subject}.",
	},
}

// listPrompts returns the static catalog of example invocation templates,
// grouped by the categories of the registered tools. It always succeeds.
func (s *Server) listPrompts() core.InvocationResponse {
	prompts := make([]PromptTemplate, 0)
	for _, t := range s.registry.List() {
		def := t.Definition()
		templates, ok := categoryTemplates[def.Category]
		if !ok {
			templates = []string{"Use " + def.Name + " for: {subject}"}
		}
		for _, tpl := range templates {
			prompts = append(prompts, PromptTemplate{
				Name:        def.Name,
				Description: def.Description,
				Tool:        def.Name,
				Template:    tpl,
			})
		}
	}
	return core.OK(map[string]any{"prompts": prompts})
}
