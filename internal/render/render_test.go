package render

import (
	"strings"
	"testing"
)

func TestHTMLText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text",
			input: "just some text",
			want:  "just some text",
		},
		{
			name:  "headings and lists",
			input: "<h2>Open PRs</h2><ul><li>Fix <b>login</b></li><li>Add tests</li></ul>",
			want:  "## Open PRs\n• Fix login\n• Add tests",
		},
		{
			name:  "table rows",
			input: "<table><tr><th>Name</th><th>Status</th></tr><tr><td>api</td><td>ok</td></tr></table>",
			want:  "Name | Status\napi | ok",
		},
		{
			name:  "breaks and scripts",
			input: "<p>Hello<br>World</p><script>alert(1)</script><style>p{}</style>",
			want:  "Hello\nWorld",
		},
		{
			name:  "whitespace collapsed",
			input: "<div>\n   spread \n\n  out   </div>",
			want:  "spread out",
		},
		{
			name:  "form controls inline",
			input: `<p>Notify <input type="checkbox" name="notify" aria-label="Email me"></p>`,
			want:  "Notify [checkbox: Email me]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTMLText(tt.input); got != tt.want {
				t.Errorf("HTMLText() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFormFields(t *testing.T) {
	markup := `
<form>
  <label for="env">Environment</label>
  <select id="env"><option>prod</option></select>
  <label><input type="checkbox" name="critical"> Critical only</label>
  <input type="range" name="threshold" aria-label="Threshold">
  <input type="text" name="q" placeholder="Search">
  <input type="hidden" name="csrf" value="x">
  <textarea name="notes"></textarea>
  <button type="submit">Apply</button>
</form>`

	got := FormFields(markup)
	want := []Field{
		{Kind: FieldDropdown, Name: "env", Label: "Environment"},
		{Kind: FieldCheckbox, Name: "critical", Label: "Critical only"},
		{Kind: FieldSlider, Name: "threshold", Label: "Threshold"},
		{Kind: FieldText, Name: "q", Label: "Search"},
		{Kind: FieldText, Name: "notes", Label: ""},
		{Kind: FieldButton, Name: "", Label: "Apply"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d fields %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("field %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestHasInteractive(t *testing.T) {
	if HasInteractive("<p>read only</p>") {
		t.Error("plain markup reported as interactive")
	}
	if HasInteractive(`<input type="hidden" name="x">`) {
		t.Error("hidden inputs are not interactive")
	}
	if !HasInteractive(`<div><input type="checkbox"></div>`) {
		t.Error("checkbox not detected")
	}
}

func TestMarkdown(t *testing.T) {
	if got := Markdown("   ", 80, StyleNoTTY); got != "" {
		t.Errorf("blank input rendered as %q", got)
	}

	out := Markdown("# Status\n\nAll **green**.\n\n- api\n- web", 60, StyleNoTTY)
	for _, want := range []string{"Status", "green", "api", "web"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered markdown missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdown_UnknownStyleFallsBack(t *testing.T) {
	out := Markdown("hello", 40, "neon")
	if !strings.Contains(out, "hello") {
		t.Errorf("output = %q", out)
	}
}
