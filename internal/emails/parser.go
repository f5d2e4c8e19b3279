package emails

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"
)

// Parsed holds the structured form of one plain-text email. Hash is the
// sha-256 of the entire raw content, headers included, so two files with
// identical bodies but different headers remain distinct.
type Parsed struct {
	Path     string
	Subject  string
	FromAddr string
	ToAddr   string
	Date     *time.Time
	BodyText string
	Hash     string
	Metadata map[string]any
}

var headerLine = regexp.MustCompile(`^([^:]+):\s*(.*)$`)

// ParseContent parses RFC-822 style content: headers until the first blank
// line, then body. Continuation lines (leading whitespace) append to the
// previous header. Content with no recognizable headers is treated as all
// body.
func ParseContent(content, path string) Parsed {
	lines := strings.Split(content, "\n")

	headers := map[string]string{}
	order := []string{}
	bodyStart := 0

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			bodyStart = i + 1
			break
		}

		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && len(order) > 0 {
			last := order[len(order)-1]
			headers[last] += " " + strings.TrimSpace(line)
			continue
		}

		if m := headerLine.FindStringSubmatch(line); m != nil {
			key := strings.ToLower(strings.TrimSpace(m[1]))
			if _, seen := headers[key]; !seen {
				order = append(order, key)
			}
			headers[key] = strings.TrimSpace(m[2])
		}
	}

	body := strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	if bodyStart == 0 && len(headers) == 0 {
		body = strings.TrimSpace(content)
	}

	sum := sha256.Sum256([]byte(content))

	var date *time.Time
	if d := headers["date"]; d != "" {
		date = parseDate(d)
	}

	rawHeaders := map[string]any{}
	for k, v := range headers {
		rawHeaders[k] = v
	}

	return Parsed{
		Path:     path,
		Subject:  headers["subject"],
		FromAddr: headers["from"],
		ToAddr:   headers["to"],
		Date:     date,
		BodyText: body,
		Hash:     hex.EncodeToString(sum[:]),
		Metadata: map[string]any{
			"cc":          headers["cc"],
			"bcc":         headers["bcc"],
			"message_id":  headers["message-id"],
			"reply_to":    headers["reply-to"],
			"raw_headers": rawHeaders,
		},
	}
}

// Layouts tried in order; zoned variants come first so the abbreviation
// fallback below can reuse them.
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"1/2/2006 15:04:05",
	"2/1/2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
}

// Common zone abbreviations mapped to fixed offsets, tried in this order.
// time.Parse does not resolve abbreviations without a location database, so
// they are rewritten to numeric offsets before retrying.
var zoneOffsets = []struct {
	abbr   string
	offset string
}{
	{"PST", "-0800"}, {"PDT", "-0700"},
	{"EST", "-0500"}, {"EDT", "-0400"},
	{"CST", "-0600"}, {"CDT", "-0500"},
	{"MST", "-0700"}, {"MDT", "-0600"},
	{"UTC", "+0000"}, {"GMT", "+0000"},
}

var parenthetical = regexp.MustCompile(`\([^)]+\)`)

// parseDate tries common email date formats and returns nil when none match.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(parenthetical.ReplaceAllString(s, ""))

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}

	for _, z := range zoneOffsets {
		if !strings.Contains(s, z.abbr) {
			continue
		}
		rewritten := strings.Replace(s, z.abbr, z.offset, 1)
		for _, layout := range dateLayouts[:4] {
			if t, err := time.Parse(layout, rewritten); err == nil {
				return &t
			}
		}
	}

	return nil
}
