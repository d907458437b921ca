// Package sanitize strips markup from user supplied text.
package sanitize

import (
	"encoding/json"
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// maxPasses bounds how many layers of entity encoding are peeled off.
const maxPasses = 4

var policy = bluemonday.StrictPolicy()

// Text drops markup but keeps plain characters as typed, so "Max & Co" stays
// readable. Entity encoded markup is decoded and stripped as well. Input that
// is still changing after maxPasses is returned in its escaped form.
func Text(s string) string {
	for i := 0; i < maxPasses; i++ {
		cleaned := policy.Sanitize(s)
		next := html.UnescapeString(cleaned)
		if next == s {
			return next
		}
		s = next
	}
	return policy.Sanitize(s)
}

// JSONFields cleans the top level string fields of a JSON object. It reports
// false when buf is not a JSON object.
func JSONFields(buf []byte) ([]byte, bool) {
	var body map[string]interface{}
	if err := json.Unmarshal(buf, &body); err != nil {
		return nil, false
	}
	for k, v := range body {
		if str, ok := v.(string); ok {
			body[k] = Text(str)
		}
	}
	out, err := json.Marshal(body)
	if err != nil {
		return nil, false
	}
	return out, true
}
