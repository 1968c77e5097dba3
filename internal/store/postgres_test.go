package store

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubRows yields its rows in order, then reports err the way a
// dropped connection does: Next returns false and only Err tells the
// truth.
type stubRows struct {
	rows    [][]any
	current int
	err     error
	closed  bool
}

var _ pgx.Rows = (*stubRows)(nil)

func (r *stubRows) Close()                                       { r.closed = true }
func (r *stubRows) Err() error                                   { return r.err }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, nil }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }

func (r *stubRows) Next() bool {
	if r.current >= len(r.rows) {
		return false
	}
	r.current++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	row := r.rows[r.current-1]
	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = row[i].(string)
		case *int:
			*target = row[i].(int)
		}
	}
	return nil
}

func TestScanStringsCollectsAllRows(t *testing.T) {
	rows := &stubRows{rows: [][]any{{"welding"}, {"scaffolding"}}}

	got, err := scanStrings(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "welding" || got[1] != "scaffolding" {
		t.Fatalf("expected rows in order, got %v", got)
	}
	if !rows.closed {
		t.Errorf("expected rows to be closed")
	}
}

func TestScanStringsSurfacesMidIterationError(t *testing.T) {
	broken := errors.New("unexpected EOF")
	rows := &stubRows{rows: [][]any{{"welding"}}, err: broken}

	got, err := scanStrings(rows)
	if !errors.Is(err, broken) {
		t.Fatalf("expected the connection error, got %v", err)
	}
	if got != nil {
		t.Fatalf("a failed iteration must not return a partial list, got %v", got)
	}
}

func TestScanSkillsSurfacesMidIterationError(t *testing.T) {
	broken := errors.New("unexpected EOF")
	rows := &stubRows{rows: [][]any{{"welding", 36}}, err: broken}

	got, err := scanSkills(rows)
	if !errors.Is(err, broken) {
		t.Fatalf("expected the connection error, got %v", err)
	}
	if got != nil {
		t.Fatalf("a failed iteration must not return partial skills, got %v", got)
	}
}

func TestScanSkillsCollectsAllRows(t *testing.T) {
	rows := &stubRows{rows: [][]any{{"welding", 36}, {"scaffolding", 12}}}

	got, err := scanSkills(rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 skills, got %d", len(got))
	}
	if got[0].Title != "welding" || got[0].DurationMonths != 36 {
		t.Errorf("unexpected first skill: %+v", got[0])
	}
	if got[1].Title != "scaffolding" || got[1].DurationMonths != 12 {
		t.Errorf("unexpected second skill: %+v", got[1])
	}
}
