package templating

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// errorLocation is a 1-based position inside a template source.
// Column is 0 when the engine only reported a line.
type errorLocation struct {
	Line   int
	Column int
}

// diagnosis is what FormatRenderError knows about a handler error.
type diagnosis struct {
	Location *errorLocation
	Problem  string
	Hints    []string
}

// Location formats, most specific first.
var locationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Line=(\d+)\s+Col=(\d+)`), // gonja
	regexp.MustCompile(`Line (\d+) Col (\d+)`),   // pongo2
	regexp.MustCompile(`at line (\d+)`),
}

// errorRule maps a recognisable engine message to a problem statement and hints.
// The first matching rule with a problem wins; hints of every matching rule
// are collected.
type errorRule struct {
	pattern *regexp.Regexp
	problem func(m []string) string
	hints   []string
}

var errorRules = []errorRule{
	{
		pattern: regexp.MustCompile(`unknown method '([^']+)'`),
		problem: func(m []string) string { return fmt.Sprintf("Unknown method '%s'", m[1]) },
	},
	{
		pattern: regexp.MustCompile(`undefined variable '([^']+)'`),
		problem: func(m []string) string { return fmt.Sprintf("Undefined variable '%s'", m[1]) },
		hints: []string{
			"Check that the variable is defined in the rendering context.",
			"Locals passed to render_partial are only visible inside that partial.",
		},
	},
	{
		pattern: regexp.MustCompile(`invalid call to method '([^']+)'`),
		problem: func(m []string) string { return fmt.Sprintf("Invalid method call '%s()' on this type", m[1]) },
		hints: []string{
			"Map access uses dot notation ('map.key') or brackets ('map[\"key\"]').",
		},
	},
	{
		pattern: regexp.MustCompile(`expected (\w+), got (\w+)`),
		problem: func(m []string) string { return fmt.Sprintf("Type mismatch: expected %s, got %s", m[1], m[2]) },
		hints: []string{
			"The template expects a different type than the one in the rendering context.",
		},
	},
	{
		pattern: regexp.MustCompile(`template not found: ([^\s:]+)`),
		problem: func(m []string) string { return fmt.Sprintf("Included template '%s' not found", m[1]) },
		hints: []string{
			"Include and partial names are logical paths relative to the view roots,",
			"without format or handler extension (e.g., 'shared/_header').",
		},
	},
	{
		pattern: regexp.MustCompile(`unable to evaluate ([^:]+):`),
		problem: func(m []string) string {
			return "Unable to evaluate expression: " + strings.TrimSpace(m[1])
		},
	},
	{
		pattern: regexp.MustCompile(`(?:For)?[cC]ontrolStructure`),
		hints: []string{
			"Check the syntax of the loop or conditional; 'for' needs a list or map.",
		},
	},
	{
		pattern: regexp.MustCompile(regexp.QuoteMeta(FuncRenderPartial) + `|` + regexp.QuoteMeta(FuncRenderCollection)),
		hints: []string{
			"render_partial(name, locals...) takes a partial name followed by a map or key/value pairs;",
			"render_collection(name, items, spacer) takes a partial name and a list.",
		},
	},
}

var fallbackHints = []string{
	"Check the template syntax and the locals passed to the template.",
	"See the Jinja2 (gonja) or Django (pongo2) template documentation for syntax help.",
}

func diagnose(msg string) diagnosis {
	var d diagnosis

	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		loc := &errorLocation{}
		loc.Line, _ = strconv.Atoi(m[1])
		if len(m) > 2 {
			loc.Column, _ = strconv.Atoi(m[2])
		}
		d.Location = loc
		break
	}

	for _, rule := range errorRules {
		m := rule.pattern.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		if d.Problem == "" && rule.problem != nil {
			d.Problem = rule.problem(m)
		}
		d.Hints = append(d.Hints, rule.hints...)
	}
	if len(d.Hints) == 0 {
		d.Hints = fallbackHints
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// FormatRenderError turns a compile or execution error of a template into a
// multi-line report with location, problem, the offending source line and hints.
// source may be empty, in which case no snippet is shown.
func FormatRenderError(err error, templateName, source string) string {
	if err == nil {
		return ""
	}
	d := diagnose(err.Error())

	var b strings.Builder
	fmt.Fprintf(&b, "Template Rendering Error: %s\n", templateName)
	b.WriteString(strings.Repeat("─", 60))
	b.WriteString("\n")

	if d.Location != nil {
		fmt.Fprintf(&b, "Location: Line %d, Column %d\n", d.Location.Line, d.Location.Column)
	}

	problem := d.Problem
	if problem == "" {
		problem = truncate(err.Error(), 100)
	}
	fmt.Fprintf(&b, "Problem:  %s\n", problem)

	if d.Location != nil {
		if snippet := sourceSnippet(source, d.Location); snippet != "" {
			b.WriteString("\nTemplate Context:\n")
			b.WriteString(snippet)
		}
	}

	b.WriteString("\nHint: ")
	b.WriteString(strings.Join(d.Hints, "\n      "))
	b.WriteString("\n")

	return b.String()
}

// sourceSnippet renders the failing line with a caret under the column.
func sourceSnippet(source string, loc *errorLocation) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	if loc.Line < 1 || loc.Line > len(lines) {
		return ""
	}

	text := lines[loc.Line-1]
	prefix := strconv.Itoa(loc.Line) + " | "
	snippet := prefix + text + "\n"
	if loc.Column > 0 && loc.Column <= len(text)+1 {
		snippet += strings.Repeat(" ", len(prefix)+loc.Column-1) + "^\n"
	}
	return snippet
}

// FormatRenderErrorShort is the single-line variant of FormatRenderError, for log lines.
func FormatRenderErrorShort(err error, templateName string) string {
	if err == nil {
		return ""
	}
	d := diagnose(err.Error())

	parts := []string{"Template: " + templateName}
	if d.Location != nil {
		parts = append(parts, fmt.Sprintf("Line %d Col %d", d.Location.Line, d.Location.Column))
	}
	if d.Problem != "" {
		parts = append(parts, d.Problem)
	} else {
		parts = append(parts, truncate(err.Error(), 60))
	}
	return strings.Join(parts, " | ")
}
