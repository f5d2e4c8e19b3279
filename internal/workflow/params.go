package workflow

import (
	"github.com/colefield/sift/internal/gateway"
	"github.com/colefield/sift/internal/runs"
)

// parameters resolves the sampling parameters for one run: runtime defaults
// overridden by the run's stored params.
type parameters struct {
	temperature float64
	topP        float64
	maxTokens   *int
}

func (rt *Runtime) parameters(run *runs.Run) parameters {
	p := parameters{
		temperature: rt.Temperature,
		topP:        rt.TopP,
	}

	if v, ok := floatParam(run.Params, "temperature"); ok {
		p.temperature = v
	}
	if v, ok := floatParam(run.Params, "top_p"); ok {
		p.topP = v
	}
	if v, ok := floatParam(run.Params, "max_tokens"); ok {
		n := int(v)
		p.maxTokens = &n
	}

	return p
}

func (p parameters) generate(model, prompt string) gateway.GenerateCommand {
	return gateway.GenerateCommand{
		Model:       model,
		Prompt:      prompt,
		Temperature: p.temperature,
		TopP:        p.topP,
		MaxTokens:   p.maxTokens,
		JSONFormat:  true,
	}
}

// audit returns the parameter snapshot stored on each classification row.
func (p parameters) audit() map[string]any {
	m := map[string]any{
		"temperature": p.temperature,
		"top_p":       p.topP,
	}
	if p.maxTokens != nil {
		m["max_tokens"] = *p.maxTokens
	}
	return m
}

// floatParam reads a numeric value from a decoded JSON params map. JSON
// numbers decode as float64; integers stored by callers are accepted too.
func floatParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
