// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

// topoOrder returns every recipe reachable from root (including root),
// in an order where each recipe follows all of its dependencies —
// suitable for the parallel executor to fan workers out over. Detects
// cycles via a recursion-stack, the same structural check spec.md
// requires of the sequential executor's depth-first walk.
func topoOrder(file *Jakefile, root *Recipe) ([]*Recipe, error) {
	var order []*Recipe
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var path []string

	var visit func(r *Recipe) error
	visit = func(r *Recipe) error {
		if onStack[r.Name] {
			return NewCycleErr(append(append([]string{}, path...), r.Name))
		}
		if visited[r.Name] {
			return nil
		}
		onStack[r.Name] = true
		path = append(path, r.Name)

		for _, depName := range r.Dependencies {
			dep := FindRecipe(file, depName)
			if dep == nil {
				return NewRecipeNotFoundErr(depName)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		if r.Kind == KindFile {
			for _, fd := range r.FileDeps {
				for _, cand := range file.Recipes {
					if cand.Kind == KindFile && cand.Output == fd {
						if err := visit(cand); err != nil {
							return err
						}
					}
				}
			}
		}

		path = path[:len(path)-1]
		onStack[r.Name] = false
		visited[r.Name] = true
		order = append(order, r)
		return nil
	}

	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}

// criticalPathLength computes the longest dependency chain (in recipe
// count) within order, the metric spec.md §4.8 asks the parallel
// executor to surface under --verbose.
func criticalPathLength(order []*Recipe) int {
	depth := map[string]int{}
	byName := map[string]*Recipe{}
	for _, r := range order {
		byName[r.Name] = r
	}
	longest := 0
	for _, r := range order {
		d := 1
		for _, dep := range r.Dependencies {
			if dd, ok := depth[dep]; ok && dd+1 > d {
				d = dd + 1
			}
		}
		depth[r.Name] = d
		if d > longest {
			longest = d
		}
	}
	return longest
}
