package mortar

import (
	"slices"
	"sort"
)

// OperationSet holds the operations of one group, keyed by verb and path.
type OperationSet map[string]Operation

// Registry groups operations by route group path.
type Registry map[string]OperationSet

func (a *App) Registry() Registry {
	return a.registry
}

// Operations returns every registered operation sorted by path, then verb.
func (a *App) Operations() []Operation {
	return a.registry.Ops()
}

func (a *App) GetOperation(method string, path string) (Operation, bool) {
	return a.registry.FindOp(method, path)
}

func (a *App) HasOperation(method string, path string) bool {
	_, ok := a.GetOperation(method, path)
	return ok
}

func toKey(method string, path string) string {
	return method + ":" + path
}

func (reg Registry) add(group string, op Operation) {
	set, ok := reg[group]
	if !ok {
		set = make(OperationSet)
		reg[group] = set
	}
	set[toKey(op.Method, op.Path)] = op
}

// TaggedOps returns all operations that have all the tags provided.
func (reg Registry) TaggedOps(tags ...string) []Operation {
	ops := make([]Operation, 0)

	for _, op := range reg.Ops() {
		hasAllTags := true
		for _, tag := range tags {
			if !slices.Contains(op.Tags, tag) {
				hasAllTags = false
				break
			}
		}

		if hasAllTags {
			ops = append(ops, op)
		}
	}

	return ops
}

func (reg Registry) FindOp(method string, path string) (Operation, bool) {
	for _, set := range reg {
		if op, ok := set[toKey(method, path)]; ok {
			return op, true
		}
	}
	return Operation{}, false
}

func (reg Registry) Ops() []Operation {
	var ops []Operation
	for _, set := range reg {
		for _, op := range set {
			ops = append(ops, op)
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})

	return ops
}
