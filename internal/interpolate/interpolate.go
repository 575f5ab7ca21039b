// Package interpolate implements the "{{ dotted.path }}" command
// template grammar used by the `loop --cmd=...` driver (§6.4). The
// Python original drives this with an ANTLR4 grammar; no grammar
// generator can run in this environment, so the walker below is a
// small hand-written scanner over "{{" ... "}}" spans.
package interpolate

import (
	"fmt"
	"strings"

	"github.com/luocfprime/labtasker/internal/model"
)

// Result is the outcome of interpolating a template against a document.
type Result struct {
	// Text is the template with every "{{ path }}" placeholder replaced.
	Text string
	// Paths is the set of dotted paths referenced by the template, in
	// first-seen order, so callers can build a minimal required_fields
	// map automatically.
	Paths []string
}

// Interpolate scans tmpl for "{{ dotted.path }}" placeholders, resolves
// each against data (a map-shaped Value, typically a task's args), and
// substitutes: scalar leaves render directly; container leaves render
// via their JSON-ish StringRepr.
func Interpolate(tmpl string, data model.Value) (Result, error) {
	var out strings.Builder
	var paths []string
	seen := map[string]bool{}

	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start < 0 {
			out.WriteString(tmpl[i:])
			break
		}
		start += i
		out.WriteString(tmpl[i:start])

		end := strings.Index(tmpl[start:], "}}")
		if end < 0 {
			return Result{}, fmt.Errorf("interpolate: unterminated placeholder starting at %d", start)
		}
		end += start

		path := strings.TrimSpace(tmpl[start+2 : end])
		if path == "" {
			return Result{}, fmt.Errorf("interpolate: empty placeholder at %d", start)
		}
		if !isValidPath(path) {
			return Result{}, fmt.Errorf("interpolate: invalid path %q", path)
		}

		val, ok := model.GetPath(data, path)
		if !ok {
			return Result{}, fmt.Errorf("interpolate: path %q not found in args", path)
		}
		out.WriteString(val.StringRepr())

		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}

		i = end + 2
	}

	return Result{Text: out.String(), Paths: paths}, nil
}

// CollectPaths scans a template for its `{{ path }}` placeholders and
// returns each distinct path once, in order of first appearance,
// without needing any data. Used by the job-loop driver to build
// the `required_fields` map automatically before the first fetch.
func CollectPaths(tmpl string) ([]string, error) {
	var paths []string
	seen := map[string]bool{}
	i := 0
	for i < len(tmpl) {
		start := strings.Index(tmpl[i:], "{{")
		if start < 0 {
			break
		}
		start += i
		end := strings.Index(tmpl[start:], "}}")
		if end < 0 {
			return nil, fmt.Errorf("interpolate: unterminated placeholder starting at %d", start)
		}
		end += start

		path := strings.TrimSpace(tmpl[start+2 : end])
		if path == "" {
			return nil, fmt.Errorf("interpolate: empty placeholder at %d", start)
		}
		if !isValidPath(path) {
			return nil, fmt.Errorf("interpolate: invalid path %q", path)
		}
		if !seen[path] {
			seen[path] = true
			paths = append(paths, path)
		}
		i = end + 2
	}
	return paths, nil
}

func isValidPath(path string) bool {
	if path == "" {
		return false
	}
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return false
		}
		for _, r := range part {
			ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_'
			if !ok {
				return false
			}
		}
	}
	return true
}

// RequiredFieldsTemplate builds a nested "required_fields" style Value
// (every leaf Null) out of a flat path list, the shape fetch_task's
// structural match expects.
func RequiredFieldsTemplate(paths []string) model.Value {
	root := map[string]model.Value{}
	for _, p := range paths {
		parts := strings.Split(p, ".")
		cur := root
		for i, part := range parts {
			if i == len(parts)-1 {
				cur[part] = model.Null()
				continue
			}
			next, ok := cur[part]
			if !ok || next.Kind != model.KindMap {
				next = model.Map(map[string]model.Value{})
				cur[part] = next
			}
			cur = next.M
		}
	}
	return model.Map(root)
}
