package mortar

import (
	"net/http"
	"sort"
)

// Resource binds HTTP verbs to the factories of the Methods serving them.
// Only GET, POST, PUT and DELETE can be bound.
type Resource map[string]Factory

func (res Resource) lookup(verb string) (Factory, bool) {
	if _, ok := successCodes[verb]; !ok {
		return nil, false
	}

	f, ok := res[verb]
	if !ok || f == nil {
		return nil, false
	}
	return f, true
}

// Allowed returns the bound verbs in sorted order.
func (res Resource) Allowed() []string {
	verbs := make([]string, 0, len(res))
	for verb := range res {
		if _, ok := res.lookup(verb); ok {
			verbs = append(verbs, verb)
		}
	}
	sort.Strings(verbs)
	return verbs
}

// Get, Post, Put and Delete return a copy of the resource with the verb bound.
func (res Resource) Get(f Factory) Resource    { return res.with(http.MethodGet, f) }
func (res Resource) Post(f Factory) Resource   { return res.with(http.MethodPost, f) }
func (res Resource) Put(f Factory) Resource    { return res.with(http.MethodPut, f) }
func (res Resource) Delete(f Factory) Resource { return res.with(http.MethodDelete, f) }

func (res Resource) with(verb string, f Factory) Resource {
	out := make(Resource, len(res)+1)
	for k, v := range res {
		out[k] = v
	}
	out[verb] = f
	return out
}
