package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/skillcheck/internal/validate"
)

// timeLayout is fixed-width so started_at sorts lexically in both dialects.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is one recorded validation run.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	BaseDir    string    `json:"base_dir"`
	Passed     bool      `json:"passed"`
	Categories int       `json:"categories"`
	LeafSkills int       `json:"leaf_skills"`
	Files      int       `json:"files"`
	IssueCount int       `json:"issue_count"`
}

// RunIssue is one issue of a recorded run.
type RunIssue struct {
	Kind    string `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// RecordRun stores report and its issues in one transaction.
func (d *DB) RecordRun(ctx context.Context, report *validate.Report, baseDir string) error {
	tx, err := d.driver.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO runs (id, started_at, base_dir, passed, categories, leaf_skills, files, issue_count)
		VALUES (%s)`, d.placeholders(8)),
		report.RunID,
		report.StartedAt.UTC().Format(timeLayout),
		baseDir,
		report.Passed(),
		report.Categories,
		report.LeafSkills,
		report.Files,
		len(report.Issues),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", report.RunID, err)
	}

	insertIssue := fmt.Sprintf(`
		INSERT INTO run_issues (run_id, seq, kind, path, message)
		VALUES (%s)`, d.placeholders(5))
	for i, issue := range report.Issues {
		if _, err := tx.Exec(ctx, insertIssue, report.RunID, i, string(issue.Kind), issue.Path, issue.String()); err != nil {
			return fmt.Errorf("insert issue %d of run %s: %w", i, report.RunID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", report.RunID, err)
	}
	return nil
}

// ListRuns returns recorded runs newest first. A limit of zero or less
// returns every run.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT id, started_at, base_dir, passed, categories, leaf_skills, files, issue_count
		FROM runs
		ORDER BY started_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT " + d.driver.Placeholder(1)
		args = append(args, limit)
	}

	rows, err := d.driver.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given id, or nil when none was recorded.
func (d *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := d.driver.QueryRow(ctx, `
		SELECT id, started_at, base_dir, passed, categories, leaf_skills, files, issue_count
		FROM runs
		WHERE id = `+d.driver.Placeholder(1), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// RunIssues returns the issues recorded for runID in discovery order.
func (d *DB) RunIssues(ctx context.Context, runID string) ([]RunIssue, error) {
	rows, err := d.driver.Query(ctx, `
		SELECT kind, path, message
		FROM run_issues
		WHERE run_id = `+d.driver.Placeholder(1)+`
		ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list issues of run %s: %w", runID, err)
	}
	defer func() { _ = rows.Close() }()

	var issues []RunIssue
	for rows.Next() {
		var issue RunIssue
		if err := rows.Scan(&issue.Kind, &issue.Path, &issue.Message); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}
	return issues, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	var started string
	if err := s.Scan(&r.ID, &started, &r.BaseDir, &r.Passed, &r.Categories, &r.LeafSkills, &r.Files, &r.IssueCount); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("parse started_at of run %s: %w", r.ID, err)
	}
	r.StartedAt = t
	return &r, nil
}

func (d *DB) placeholders(n int) string {
	out := ""
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += d.driver.Placeholder(i)
	}
	return out
}
