package validate

import "strings"

const (
	unvisited = iota
	visiting
	done
)

// checkCycles follows extends edges between registered names and reports
// every cycle found once. Edges to the global root and to names that are
// not skill documents (plain category keys) end the path.
func (c *Checker) checkCycles(vctx *Context) {
	names := vctx.Registry.Names()
	order := make(map[string]int, len(names))
	for i, n := range names {
		order[n] = i
	}

	state := make(map[string]int, len(names))
	seen := make(map[string]bool)
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		state[name] = visiting
		stack = append(stack, name)
		for _, parent := range vctx.edges[name] {
			if parent == c.opts.RootSkill {
				continue
			}
			if _, registered := order[parent]; !registered {
				continue
			}
			switch state[parent] {
			case unvisited:
				visit(parent)
			case visiting:
				cycle := cycleFrom(stack, parent)
				cycle = rotateToFirst(cycle, order)
				key := strings.Join(cycle, "\x00")
				if seen[key] {
					continue
				}
				seen[key] = true
				path, _ := vctx.Registry.Lookup(cycle[0])
				vctx.Add(Issue{
					Kind:  KindCycle,
					Path:  path,
					Chain: append(cycle, cycle[0]),
				})
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
	}

	for _, name := range names {
		if state[name] == unvisited {
			visit(name)
		}
	}
}

// cycleFrom returns the stack suffix starting at name.
func cycleFrom(stack []string, name string) []string {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == name {
			return append([]string(nil), stack[i:]...)
		}
	}
	return []string{name}
}

// rotateToFirst rotates cycle so it starts with the member registered first.
func rotateToFirst(cycle []string, order map[string]int) []string {
	start := 0
	for i, n := range cycle {
		if order[n] < order[cycle[start]] {
			start = i
		}
	}
	return append(append([]string(nil), cycle[start:]...), cycle[:start]...)
}
