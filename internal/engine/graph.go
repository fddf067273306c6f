package engine

import (
	"fmt"

	"indicatorEngine/internal/indicators"
)

// evaluationOrder is a topological order of all families over
// Kind.Dependencies, ties broken by declaration order.
var evaluationOrder = mustTopoSort()

func mustTopoSort() []indicators.Kind {
	order, err := topoSort(indicators.Kinds(), func(k indicators.Kind) []indicators.Kind {
		return k.Dependencies()
	})
	if err != nil {
		panic(err)
	}
	return order
}

// topoSort orders kinds so every kind follows its dependencies.
func topoSort(kinds []indicators.Kind, deps func(indicators.Kind) []indicators.Kind) ([]indicators.Kind, error) {
	indegree := make(map[indicators.Kind]int, len(kinds))
	dependents := make(map[indicators.Kind][]indicators.Kind)
	for _, k := range kinds {
		indegree[k] += 0
		for _, d := range deps(k) {
			indegree[k]++
			dependents[d] = append(dependents[d], k)
		}
	}

	order := make([]indicators.Kind, 0, len(kinds))
	done := make(map[indicators.Kind]bool, len(kinds))
	for len(order) < len(kinds) {
		progressed := false
		for _, k := range kinds {
			if done[k] || indegree[k] > 0 {
				continue
			}
			done[k] = true
			order = append(order, k)
			for _, dep := range dependents[k] {
				indegree[dep]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("engine: dependency cycle among %v", kinds)
		}
	}
	return order, nil
}

// node identifies one dependency computation within a pass.
type node struct {
	kind   indicators.Kind
	window int
}

type memoEntry struct {
	frame *indicators.Frame
	err   error
}
