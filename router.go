package mortar

import (
	"fmt"
	"net/url"
	"strings"
)

// URL builds the path of the named route, filling its {param} and
// {param:regexp} segments from parts and appending query. A missing part is
// an error.
func (a *App) URL(name string, parts map[string]string, query url.Values) (string, error) {
	pattern, ok := a.routes[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}

	path, err := expandPattern(pattern, parts)
	if err != nil {
		return "", fmt.Errorf("route %s: %w", name, err)
	}

	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	return path, nil
}

// Pattern returns the chi pattern registered under name.
func (a *App) Pattern(name string) (string, bool) {
	p, ok := a.routes[name]
	return p, ok
}

func expandPattern(pattern string, parts map[string]string) (string, error) {
	var b strings.Builder

	for len(pattern) > 0 {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			b.WriteString(pattern)
			break
		}
		b.WriteString(pattern[:start])

		end := paramEnd(pattern, start)
		if end < 0 {
			return "", fmt.Errorf("unbalanced braces in %q", pattern)
		}

		key, _, _ := strings.Cut(pattern[start+1:end], ":")
		val, ok := parts[key]
		if !ok || val == "" {
			return "", fmt.Errorf("missing value for {%s}", key)
		}
		b.WriteString(url.PathEscape(val))

		pattern = pattern[end+1:]
	}

	out := b.String()
	out = strings.TrimSuffix(out, "/*")
	return out, nil
}

// paramEnd finds the brace closing the parameter opened at start; regexps
// may contain braces of their own.
func paramEnd(pattern string, start int) int {
	depth := 0
	for i := start; i < len(pattern); i++ {
		switch pattern[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
