package prompts

// FromMap adapts a loosely-typed record into a builder Input. Callers that
// hold emails as string-keyed maps (bulk import tooling, tests) use this
// instead of constructing Input by hand. Each field accepts fallback keys
// matching the shapes seen in upload payloads.
func FromMap(m map[string]any) Input {
	return Input{
		Subject: stringKey(m, "subject"),
		From:    stringKey(m, "from", "from_addr"),
		To:      stringKey(m, "to", "to_addr"),
		Date:    stringKey(m, "date"),
		Body:    stringKey(m, "body", "body_text"),
	}
}

func stringKey(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
