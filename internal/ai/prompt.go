// Package ai talks to language model and speech providers.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/radio-t/webradio/internal/content"
	"github.com/radio-t/webradio/podcast"
)

//go:generate moq -out mocks/script_writer.go -pkg mocks -skip-ensure -fmt goimports . ScriptWriter

// ScriptWriter turns source text into a two-host dialogue script
type ScriptWriter interface {
	GenerateScript(ctx context.Context, params podcast.GenerateScriptParams) (string, error)
}

// DefaultTitle is used for the program title when the source has none
const DefaultTitle = "Radio program"

// createScriptPrompt creates the system prompt describing roles and output format
func createScriptPrompt(style podcast.Style, language string) string {
	basePrompt := `You write scripts for a short two-host radio program based on the provided material.

%s

Output format:
- dialogue lines only, one turn per line
- every line starts with the speaker tag, A: for the first host, B: for the second
- no tables, no headings, no stage directions, no sound effect notes
- structure: opening, main discussion, closing
- about five minutes of talking

Example:
A: (what A says)
B: (what B says)

Write the whole script in %s.`

	return fmt.Sprintf(basePrompt, style.RoleFor(language), language)
}

// createSourceMessage formats the material for the user message
func createSourceMessage(params podcast.GenerateScriptParams) string {
	tp := content.NewTextProcessor()
	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = DefaultTitle
	}
	return fmt.Sprintf("Source: %s\n\n%s", title, tp.TruncateString(strings.TrimSpace(params.Content), content.MaxSourceChars))
}

// cleanScript trims the model output and drops code fences around it
func cleanScript(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```text")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
