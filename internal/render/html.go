// Package render turns generated panel content into terminal text.
//
// Rich panels carry generated markup; the terminal shows its text with the
// block structure kept and lists the interactive elements the markup
// declares. Chat panels carry plain markdown and go through glamour.
package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// blockTags start a new line before and after their content.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "div": true, "dl": true, "dt": true, "dd": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "summary": true,
	"table": true, "thead": true, "tbody": true, "tfoot": true, "ul": true,
	"content": true, "card": true,
}

// skipTags never contribute text.
var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "noscript": true, "template": true,
}

// HTMLText extracts readable text from markup. Headings are prefixed with
// "#", list items with a bullet and table rows are joined with " | ".
// Input that does not parse is returned unchanged.
func HTMLText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	w := &textWriter{}
	w.walk(doc.Selection)
	return w.String()
}

type textWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *textWriter) walk(sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		switch node.Type {
		case html.TextNode:
			w.text(node.Data)
		case html.ElementNode:
			w.element(goquery.NodeName(s), s)
		case html.DocumentNode:
			w.walk(s)
		}
	})
}

func (w *textWriter) element(name string, s *goquery.Selection) {
	switch {
	case skipTags[name]:
		return
	case name == "br":
		w.newline()
	case strings.HasPrefix(name, "h") && len(name) == 2 && name[1] >= '1' && name[1] <= '6':
		w.newline()
		w.cur.WriteString(strings.Repeat("#", int(name[1]-'0')) + " ")
		w.walk(s)
		w.newline()
	case name == "li":
		w.newline()
		w.cur.WriteString("• ")
		w.walk(s)
		w.newline()
	case name == "tr":
		w.newline()
		var cells []string
		s.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapse(cell.Text()))
		})
		w.cur.WriteString(strings.Join(cells, " | "))
		w.newline()
	case name == "input", name == "select", name == "textarea", name == "button":
		w.field(s)
	case blockTags[name]:
		w.newline()
		w.walk(s)
		w.newline()
	default:
		w.walk(s)
	}
}

// field renders a form control inline as [kind: label].
func (w *textWriter) field(s *goquery.Selection) {
	f := fieldFor(s)
	if f.Kind == "" {
		return
	}
	label := f.Label
	if label == "" {
		label = f.Name
	}
	w.text(" [" + string(f.Kind) + ": " + label + "] ")
}

func (w *textWriter) text(s string) {
	s = collapse(s)
	if s == "" {
		return
	}
	if w.cur.Len() > 0 && !strings.HasSuffix(w.cur.String(), " ") {
		w.cur.WriteString(" ")
	}
	w.cur.WriteString(s)
}

func (w *textWriter) newline() {
	line := strings.TrimSpace(w.cur.String())
	w.cur.Reset()
	if line != "" {
		w.lines = append(w.lines, line)
	}
}

func (w *textWriter) String() string {
	w.newline()
	return strings.Join(w.lines, "\n")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FieldKind is the kind of interactive element.
type FieldKind string

const (
	FieldCheckbox FieldKind = "checkbox"
	FieldSlider   FieldKind = "slider"
	FieldDropdown FieldKind = "dropdown"
	FieldText     FieldKind = "text"
	FieldButton   FieldKind = "button"
)

// Field is one interactive element found in markup.
type Field struct {
	Kind  FieldKind
	Name  string
	Label string
}

// FormFields lists the interactive elements declared in markup, in
// document order.
func FormFields(markup string) []Field {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	var fields []Field
	doc.Find("input, select, textarea, button").Each(func(_ int, s *goquery.Selection) {
		if f := fieldFor(s); f.Kind != "" {
			fields = append(fields, f)
		}
	})
	return fields
}

// HasInteractive reports whether markup declares any interactive element.
// Such panels offer a "Save & Submit" action.
func HasInteractive(markup string) bool {
	return len(FormFields(markup)) > 0
}

func fieldFor(s *goquery.Selection) Field {
	name, _ := s.Attr("name")
	if name == "" {
		name, _ = s.Attr("id")
	}
	f := Field{Name: name, Label: labelFor(s)}

	switch goquery.NodeName(s) {
	case "select":
		f.Kind = FieldDropdown
	case "textarea":
		f.Kind = FieldText
	case "button":
		f.Kind = FieldButton
		if f.Label == "" {
			f.Label = collapse(s.Text())
		}
	case "input":
		typ, _ := s.Attr("type")
		switch strings.ToLower(typ) {
		case "checkbox", "radio":
			f.Kind = FieldCheckbox
		case "range":
			f.Kind = FieldSlider
		case "hidden":
			return Field{}
		case "submit", "button":
			f.Kind = FieldButton
			if f.Label == "" {
				f.Label, _ = s.Attr("value")
			}
		default:
			f.Kind = FieldText
		}
	}
	return f
}

// labelFor finds the label of a control: aria-label, a <label for=id>, an
// enclosing <label>, or the placeholder.
func labelFor(s *goquery.Selection) string {
	if v, ok := s.Attr("aria-label"); ok && v != "" {
		return v
	}
	if id, ok := s.Attr("id"); ok && id != "" {
		root := s.Parents().Last()
		if l := root.Find("label[for='" + id + "']"); l.Length() > 0 {
			return collapse(l.First().Text())
		}
	}
	if l := s.Closest("label"); l.Length() > 0 {
		if text := collapse(l.Text()); text != "" {
			return text
		}
	}
	if v, ok := s.Attr("placeholder"); ok {
		return v
	}
	return ""
}
