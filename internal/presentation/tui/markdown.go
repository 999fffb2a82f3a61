package tui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/switchboard/pkg/domain"
)

// DefinitionMarkdown describes a definition as a markdown document:
// one section per state with its prompt, tools and transitions.
func DefinitionMarkdown(agentID string, def *domain.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", agentID)
	fmt.Fprintf(&sb, "%d states, starting at **%s**.\n", len(def.States), def.StartingState)

	for _, s := range def.States {
		title := s.Name
		if s.Name == def.StartingState {
			title += " (start)"
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", title)

		if strings.TrimSpace(s.Prompt) == "" {
			sb.WriteString("_No prompt._\n")
		} else {
			for _, line := range strings.Split(strings.TrimSpace(s.Prompt), "\n") {
				fmt.Fprintf(&sb, "> %s\n", line)
			}
		}

		if len(s.Tools) > 0 {
			sb.WriteString("\n**Tools**\n\n")
			for _, tool := range s.Tools {
				fmt.Fprintf(&sb, "- `%s`\n", toolSummary(tool))
			}
		}

		if len(s.Edges) > 0 {
			sb.WriteString("\n**Transitions**\n\n")
			for _, e := range s.Edges {
				line := "- -> **" + e.TargetStateName + "**"
				if e.Description != "" {
					line += ": " + e.Description
				}
				if e.SpeakDuringTransition {
					line += " _(keeps speaking)_"
				}
				sb.WriteString(line + "\n")
			}
		}
	}
	return sb.String()
}

// toolSummary renders a tool compactly with sorted keys.
func toolSummary(tool domain.Tool) string {
	keys := make([]string, 0, len(tool))
	for k := range tool {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(tool[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", tool[k]))
		}
		parts = append(parts, k+"="+string(v))
	}
	return strings.Join(parts, " ")
}
