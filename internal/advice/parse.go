package advice

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/ecotrack/backend/internal/fn"
)

// ErrNoTips is returned when a response contains no usable tip.
var ErrNoTips = errors.New("advice: response contained no tips")

// lineDecoration is trimmed from both ends of every line in the line-split
// stage: ASCII hyphen, asterisk, bullet (U+2022), space and tab.
const lineDecoration = "-*• \t"

// ParseTips extracts at most MaxTips tips from a model response in two stages.
//
//  1. Structured: after trimming whitespace (and a surrounding ``` fence, if
//     any), text that starts with '[' and ends with ']' is decoded as a JSON
//     array of strings. Blank entries are dropped; an array with nothing
//     left is ErrNoTips.
//  2. Line split: if stage 1 does not apply or fails to decode, the text is
//     split on '\n', each line is trimmed of lineDecoration characters, and
//     empty lines are dropped.
//
// A response that yields nothing from either stage is an ErrNoTips failure.
func ParseTips(text string) fn.Result[[]string] {
	body := stripFence(strings.TrimSpace(text))

	if strings.HasPrefix(body, "[") && strings.HasSuffix(body, "]") {
		var raw []string
		if err := json.Unmarshal([]byte(body), &raw); err == nil {
			tips := clean(raw, strings.TrimSpace)
			if len(tips) == 0 {
				return fn.Err[[]string](ErrNoTips)
			}
			return fn.Ok(truncate(tips))
		}
	}

	lines := clean(strings.Split(body, "\n"), func(s string) string {
		return strings.Trim(s, lineDecoration)
	})
	if len(lines) == 0 {
		return fn.Err[[]string](ErrNoTips)
	}
	return fn.Ok(truncate(lines))
}

func clean(items []string, trim func(string) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s := trim(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// stripFence removes a Markdown code fence such as ```json ... ```.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(s[3:], "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		inner = inner[nl+1:]
	}
	return strings.TrimSpace(inner)
}
