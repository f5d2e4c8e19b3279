package prompts

const defaultVersion = "1.0"

const defaultSystemPrompt = `You are a careful legal assistant helping classify emails for a California Public Records Act (CPRA) request regarding environmental hazards and building-system conditions at K-12 schools and district facilities.

Your task is to determine whether an email meaningfully discusses or pertains to environmental conditions such as:
- Mold (inspection, testing, remediation, moisture intrusion)
- Lead (water testing, plumbing maintenance, paint/glazing - NOT "lead teacher" or "leadership")
- Asbestos (inspection, abatement, management, monitoring)
- Other environmental hazards (radon, PCBs, pesticides, VOCs, indoor air quality)
- Building and infrastructure systems (HVAC, roofing, windows, drainage)
- Funding and remediation plans for environmental issues

Be very careful to avoid false positives where words like "lead" mean "leadership," "lead teacher," "lead time," or other unrelated senses.

Output your classification as valid JSON matching the provided schema.`

// outputShape is the worked JSON example restated in every prompt. It is
// informationally redundant with the bundle's output schema, but models
// comply far better when shown a literal shape, so both are kept.
const outputShape = `{
  "responsive": "boolean (true/false)",
  "confidence": "number (0.0-1.0)",
  "reason": "string (max 200 chars)",
  "labels": [
    "list",
    "of",
    "labels"
  ]
}`

func defaultOutputSchema() map[string]any {
	return map[string]any{
		"responsive": map[string]any{
			"type":        "boolean",
			"description": "True if email is responsive to CPRA request",
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "Confidence score between 0.0 and 1.0",
			"minimum":     0.0,
			"maximum":     1.0,
		},
		"reason": map[string]any{
			"type":        "string",
			"description": "Brief explanation (max 200 chars)",
			"maxLength":   200,
		},
		"labels": map[string]any{
			"type":        "array",
			"description": "List of relevant environmental hazard labels",
			"items":       map[string]any{"type": "string"},
		},
	}
}

func defaultBundle() Bundle {
	return Bundle{
		Version:      defaultVersion,
		System:       defaultSystemPrompt,
		Examples:     []Example{},
		OutputSchema: defaultOutputSchema(),
	}
}
