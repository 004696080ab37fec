package ingest

import (
	"strings"
	"testing"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"paragraphs become blocks",
			"<p>First paragraph.</p><p>Second paragraph.</p>",
			"First paragraph.\n\nSecond paragraph.",
		},
		{
			"inline tags collapse",
			"<p>We use <b>Go</b> and <em>Postgres</em>.</p>",
			"We use Go and Postgres.",
		},
		{
			"lists",
			"<ul><li>Ship features</li><li>Fix bugs</li></ul>",
			"Ship features\n\nFix bugs",
		},
		{
			"whitespace collapses",
			"<div>  lots\n\n   of\tspace  </div>",
			"lots of space",
		},
		{
			"plain text passes through",
			"no markup here",
			"no markup here",
		},
		{
			"empty",
			"   ",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLToText(tt.in); got != tt.want {
				t.Errorf("HTMLToText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHTMLToTextSkipsScriptAndStyle(t *testing.T) {
	in := "<p>visible</p><script>var hidden = 1;</script><style>.x{color:red}</style><p>also visible</p>"
	got := HTMLToText(in)
	if strings.Contains(got, "hidden") || strings.Contains(got, "color") {
		t.Errorf("script/style content leaked into %q", got)
	}
	if !strings.Contains(got, "visible") {
		t.Errorf("visible text missing from %q", got)
	}
}

func TestHTMLToTextToleratesBrokenMarkup(t *testing.T) {
	got := HTMLToText("<p>unclosed <b>bold")
	if !strings.Contains(got, "unclosed") || !strings.Contains(got, "bold") {
		t.Errorf("broken markup mangled: %q", got)
	}
}
