package mortar

import (
	"path"

	"github.com/tailbits/mortar/internal/casing"
)

// RouteGroup prefixes the patterns of the views it registers with the
// kebab-case path of its group chain.
type RouteGroup struct {
	name   string
	app    *App
	parent *RouteGroup
}

func (g *RouteGroup) Name() string {
	return g.name
}

func (g *RouteGroup) FullPath() string {
	if g.name == "" {
		return ""
	}

	pth := casing.ToKebabCase(g.name)
	for p := g.parent; p != nil; p = p.parent {
		pth = path.Join(casing.ToKebabCase(p.name), pth)
	}

	return pth
}

// Handle registers v under the group's path.
func (g *RouteGroup) Handle(pattern string, v *View, name ...string) {
	g.app.handle(g.FullPath(), joinPattern(g.FullPath(), pattern), v, name...)
}

func (g *RouteGroup) NewRouteGroup(name string) *RouteGroup {
	return &RouteGroup{
		name:   name,
		app:    g.app,
		parent: g,
	}
}

func joinPattern(prefix string, pattern string) string {
	if prefix == "" {
		return pattern
	}

	joined := path.Join("/", prefix, pattern)
	if pattern != "/" && len(pattern) > 0 && pattern[len(pattern)-1] == '/' {
		joined += "/"
	}
	return joined
}
