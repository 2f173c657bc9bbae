package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hairizuan-noorazman/testpilot/appmodule"
	"github.com/hairizuan-noorazman/testpilot/csvio"
	"github.com/hairizuan-noorazman/testpilot/issuetracker"
	"github.com/hairizuan-noorazman/testpilot/state"
	"github.com/hairizuan-noorazman/testpilot/testcase"
)

var (
	// ErrNoExportStorage is returned by Publish when no export storage is set.
	ErrNoExportStorage = errors.New("no export storage configured")

	// ErrNoTracker is returned by FileBugs when no issue tracker is set.
	ErrNoTracker = errors.New("no issue tracker configured")

	// ErrUnknownExport is returned for an export kind other than results or bugs.
	ErrUnknownExport = errors.New("unknown export kind")
)

// ExportKind selects which CSV report to produce.
type ExportKind string

const (
	ExportResults ExportKind = "results"
	ExportBugs    ExportKind = "bugs"
)

// exportDir is the blob storage prefix published exports are written under.
const exportDir = "exports"

// Import reads test cases from CSV and adds them as Pending cases. Modules
// named by imported rows that do not exist yet are created.
func (w *Workspace) Import(ctx context.Context, r io.Reader) ([]testcase.TestCase, error) {
	s := w.store.GetState()

	cases, err := csvio.Import(r, s.TestCases)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, nil
	}

	var modules []appmodule.DiscoveredModule
	for _, tc := range cases {
		if _, ok := s.Module(tc.Module); ok {
			continue
		}
		m, err := appmodule.New(tc.Module, "")
		if err != nil {
			continue
		}
		modules = append(modules, m)
	}
	if len(modules) > 0 {
		if _, err := w.store.Dispatch(ctx, state.AddModules{Modules: modules}); err != nil {
			return nil, err
		}
	}

	if _, err := w.store.Dispatch(ctx, state.AddTestCases{Cases: cases}); err != nil {
		return nil, err
	}
	w.logger.Info(ctx, "Test cases imported", map[string]interface{}{
		"count":       len(cases),
		"new_modules": len(modules),
	})
	return cases, nil
}

// ExportResults writes every test case with its current result.
func (w *Workspace) ExportResults(ctx context.Context, out io.Writer) error {
	return csvio.WriteResults(out, w.store.GetState().TestCases)
}

// ExportBugs writes the bug report and returns the number of bugs in it.
func (w *Workspace) ExportBugs(ctx context.Context, out io.Writer) (int, error) {
	return csvio.WriteBugReport(out, w.store.GetState().TestCases)
}

// Published describes an export written to blob storage.
type Published struct {
	Path string `json:"path"`
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}

// Publish renders an export and uploads it to the export storage under a
// timestamped name.
func (w *Workspace) Publish(ctx context.Context, kind ExportKind) (*Published, error) {
	if w.exports == nil {
		return nil, ErrNoExportStorage
	}

	var buf bytes.Buffer
	var rows int
	switch kind {
	case ExportResults:
		if err := w.ExportResults(ctx, &buf); err != nil {
			return nil, err
		}
		rows = len(w.store.GetState().TestCases)
	case ExportBugs:
		n, err := w.ExportBugs(ctx, &buf)
		if err != nil {
			return nil, err
		}
		rows = n
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExport, kind)
	}

	path := fmt.Sprintf("%s/%s-%s.csv", exportDir, kind, w.now().UTC().Format("20060102-150405"))
	if err := w.exports.Upload(ctx, path, &buf); err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := w.exports.GetURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get export URL: %w", err)
	}

	w.logger.Info(ctx, "Export published", map[string]interface{}{
		"kind": string(kind),
		"path": path,
		"rows": rows,
	})
	return &Published{Path: path, URL: url, Rows: rows}, nil
}

// FiledBug pairs a failed test case with the issue created for it.
type FiledBug struct {
	CaseID string              `json:"case_id"`
	BugID  string              `json:"bug_id"`
	Issue  *issuetracker.Issue `json:"issue"`
}

// FileBugs creates one issue per Failed or Blocked test case. The first
// tracker error stops the run; issues already created are returned with it.
func (w *Workspace) FileBugs(ctx context.Context) ([]FiledBug, error) {
	if w.tracker == nil {
		return nil, ErrNoTracker
	}

	var filed []FiledBug
	for _, tc := range csvio.Defects(w.store.GetState().TestCases) {
		issue, err := w.tracker.CreateIssue(ctx, issuetracker.BugIssue(tc))
		if err != nil {
			return filed, fmt.Errorf("failed to file bug for %s: %w", tc.ID, err)
		}
		filed = append(filed, FiledBug{CaseID: tc.ID, BugID: csvio.BugID(tc.ID), Issue: issue})
		w.logger.Info(ctx, "Bug filed", map[string]interface{}{
			"case_id":     tc.ID,
			"external_id": issue.ExternalID,
		})
	}
	return filed, nil
}
