package qagen

import (
	"context"
	"fmt"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

// CaseGenerator produces drafts for one module. *Service implements it.
type CaseGenerator interface {
	GenerateTestCases(ctx context.Context, req GenerateRequest) ([]Draft, error)
}

// BatchOptions apply to every module in a batch.
type BatchOptions struct {
	Count          int
	Types          []testcase.Type
	AppDescription string
}

// CommitFunc persists the cases produced for one module before the batch
// moves on to the next.
type CommitFunc func(ctx context.Context, module appmodule.DiscoveredModule, cases []testcase.TestCase) error

// GenerateForModules generates test cases for each module in turn. Modules are
// processed strictly one after another: the running collection (existing plus
// everything produced so far) feeds both ID allocation and the existing-tests
// context of the next prompt. The first error stops the batch; cases already
// produced and committed are returned alongside it.
func GenerateForModules(ctx context.Context, gen CaseGenerator, modules []appmodule.DiscoveredModule, existing []testcase.TestCase, opts BatchOptions, commit CommitFunc) ([]testcase.TestCase, error) {
	running := append([]testcase.TestCase(nil), existing...)

	var produced []testcase.TestCase
	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return produced, err
		}

		req := GenerateRequest{
			ModuleName:        m.Name,
			ModuleDescription: m.Description,
			Insights:          m.Insights,
			AppDescription:    opts.AppDescription,
			Count:             opts.Count,
			Types:             opts.Types,
		}
		for _, tc := range running {
			if tc.Module == m.Name {
				req.ExistingCount++
				req.ExistingTitles = append(req.ExistingTitles, tc.Title)
			}
		}

		drafts, err := gen.GenerateTestCases(ctx, req)
		if err != nil {
			return produced, fmt.Errorf("generate test cases for module %q: %w", m.Name, err)
		}

		cases := FromDrafts(m.Name, drafts, running)
		running = append(running, cases...)
		produced = append(produced, cases...)

		if commit != nil {
			if err := commit(ctx, m, cases); err != nil {
				return produced, fmt.Errorf("commit test cases for module %q: %w", m.Name, err)
			}
		}
	}
	return produced, nil
}

// FromDrafts turns drafts into Pending test cases for moduleName, with IDs
// allocated after those already present in existing.
func FromDrafts(moduleName string, drafts []Draft, existing []testcase.TestCase) []testcase.TestCase {
	ids := testcase.AllocateIDs(moduleName, existing, len(drafts))
	cases := make([]testcase.TestCase, len(drafts))
	for i, d := range drafts {
		cases[i] = testcase.TestCase{
			ID:              ids[i],
			Module:          moduleName,
			Title:           d.Title,
			Description:     d.Description,
			Steps:           d.Steps,
			ExpectedResults: d.ExpectedResults,
			Type:            d.Type,
			Status:          testcase.StatusPending,
		}
	}
	return cases
}
