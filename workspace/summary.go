package workspace

import (
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// Counts tallies test cases by status.
type Counts struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Blocked int `json:"blocked"`
}

func (c *Counts) add(s testcase.Status) {
	c.Total++
	switch s {
	case testcase.StatusPassed:
		c.Passed++
	case testcase.StatusFailed:
		c.Failed++
	case testcase.StatusBlocked:
		c.Blocked++
	default:
		c.Pending++
	}
}

// Executed is the number of cases with an outcome.
func (c Counts) Executed() int {
	return c.Passed + c.Failed + c.Blocked
}

// PassRate is the percentage of executed cases that passed.
func (c Counts) PassRate() float64 {
	if c.Executed() == 0 {
		return 0
	}
	return float64(c.Passed) * 100 / float64(c.Executed())
}

// ModuleCounts is the per-module breakdown.
type ModuleCounts struct {
	Module string `json:"module"`
	Counts
}

// Summary is the execution overview of the project.
type Summary struct {
	Counts
	Modules []ModuleCounts `json:"modules"`
}

// Summary counts test cases per status overall and per module. Modules are
// listed in project order, followed by any module only referenced by cases.
func (w *Workspace) Summary() Summary {
	s := w.store.GetState()

	var sum Summary
	index := make(map[string]int)
	for _, m := range s.DiscoveredModules {
		index[m.Name] = len(sum.Modules)
		sum.Modules = append(sum.Modules, ModuleCounts{Module: m.Name})
	}

	for _, tc := range s.TestCases {
		sum.add(tc.Status)
		i, ok := index[tc.Module]
		if !ok {
			i = len(sum.Modules)
			index[tc.Module] = i
			sum.Modules = append(sum.Modules, ModuleCounts{Module: tc.Module})
		}
		sum.Modules[i].add(tc.Status)
	}
	return sum
}
