package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Finals Photo", "Finals Photo"},
		{"ampersand kept", "Max & Co", "Max & Co"},
		{"less than kept", "a < b", "a < b"},
		{"tags stripped", "<b>Max</b> & Co", "Max & Co"},
		{"script dropped", "<script>alert(1)</script>Finals", "Finals"},
		{"encoded script dropped", "&lt;script&gt;alert(1)&lt;/script&gt;Finals", "Finals"},
		{"double encoded tag", "&amp;lt;b&amp;gt;Max&amp;lt;/b&amp;gt;", "Max"},
		{"numeric entities", "&#60;img src=x onerror=alert(1)&#62;Hi", "Hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Text(tc.in)
			assert.Equal(t, tc.want, got)
			assert.NotContains(t, got, "<script")
			assert.Equal(t, got, Text(got))
		})
	}
}

func TestJSONFields(t *testing.T) {
	out, ok := JSONFields([]byte(`{"author":"<b>Max</b>","title":"&lt;i&gt;t&lt;/i&gt;","tournamentId":7}`))
	require.True(t, ok)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &body))
	assert.Equal(t, "Max", body["author"])
	assert.Equal(t, "t", body["title"])
	assert.Equal(t, float64(7), body["tournamentId"])

	_, ok = JSONFields([]byte(`not json`))
	assert.False(t, ok)
}
