package core

import (
	"time"
)

// DefaultSystemPrompt is the instruction message for the weather assistant.
const DefaultSystemPrompt = `You are a helpful weather assistant for a command line application.

You answer questions about current weather conditions using the tools
available to you:
- get_coordinates resolves a place name to latitude and longitude
- get_weather reads current conditions for a latitude and longitude

get_weather needs coordinates. When the user names a place, resolve its
coordinates first, then fetch the weather. If a tool returns an error,
tell the user what went wrong instead of guessing.

Keep answers short and conversational. Report values with the units the
tools return.`

// PromptContext holds runtime information available to prompt enrichers.
type PromptContext struct {
	Now      time.Time
	UserName string
}

// PromptEnricher prepends context to a base prompt.
type PromptEnricher interface {
	Enrich(base string, ctx PromptContext) string
}

// PromptEnricherFunc adapts a function to the PromptEnricher interface.
type PromptEnricherFunc func(base string, ctx PromptContext) string

// Enrich implements PromptEnricher.
func (f PromptEnricherFunc) Enrich(base string, ctx PromptContext) string {
	return f(base, ctx)
}

// PromptComposer chains enrichers to build the final system prompt.
type PromptComposer struct {
	enrichers []PromptEnricher
}

// NewPromptComposer creates a composer with the given enrichers. Enrichers
// are applied in reverse so the first one's output appears first.
func NewPromptComposer(enrichers ...PromptEnricher) *PromptComposer {
	return &PromptComposer{enrichers: enrichers}
}

// Compose applies all enrichers to the base prompt.
func (c *PromptComposer) Compose(base string, ctx PromptContext) string {
	result := base
	for i := len(c.enrichers) - 1; i >= 0; i-- {
		result = c.enrichers[i].Enrich(result, ctx)
	}
	return result
}

// DateEnricher adds the current date, so "today" and "tonight" in user
// questions have a reference point.
func DateEnricher() PromptEnricher {
	return PromptEnricherFunc(func(base string, ctx PromptContext) string {
		return "Today is " + ctx.Now.Format("Monday, January 2, 2006") + ".\n\n" + base
	})
}

// UserEnricher tells the assistant who it is talking to.
func UserEnricher() PromptEnricher {
	return PromptEnricherFunc(func(base string, ctx PromptContext) string {
		if ctx.UserName == "" {
			return base
		}
		return "The user's name is " + ctx.UserName + ". Address them by name.\n\n" + base
	})
}

// DefaultComposer returns the composer used by the CLI session.
func DefaultComposer() *PromptComposer {
	return NewPromptComposer(
		DateEnricher(),
		UserEnricher(),
	)
}
