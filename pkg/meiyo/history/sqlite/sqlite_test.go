package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/meiyo/pkg/meiyo/history"
	"github.com/cognicore/meiyo/pkg/meiyo/internalerr"
)

func openTestStore(t *testing.T) (history.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	st, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st, path
}

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := initSchema(ctx, db); err != nil {
			t.Fatalf("initSchema iteration %d: %v", i, err)
		}
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		t.Fatalf("Count tables: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 tables, got %d", count)
	}
}

func TestQueryCounting(t *testing.T) {
	ctx := context.Background()
	st, _ := openTestStore(t)

	for i := 1; i <= 3; i++ {
		n, err := st.IncrementQuery(ctx, "バカ")
		if err != nil {
			t.Fatalf("IncrementQuery: %v", err)
		}
		if n != int64(i) {
			t.Errorf("IncrementQuery returned %d, want %d", n, i)
		}
	}
	st.IncrementQuery(ctx, "アホ")

	if c, err := st.QueryCount(ctx, " バカ "); err != nil || c != 3 {
		t.Errorf("QueryCount = %d, %v; want 3", c, err)
	}
	if c, err := st.QueryCount(ctx, "未登録"); err != nil || c != 0 {
		t.Errorf("unknown query count = %d, %v; want 0", c, err)
	}

	top, err := st.TopQueries(ctx, 10)
	if err != nil {
		t.Fatalf("TopQueries: %v", err)
	}
	want := []history.QueryCount{{Query: "バカ", Count: 3}, {Query: "アホ", Count: 1}}
	if len(top) != len(want) || top[0] != want[0] || top[1] != want[1] {
		t.Errorf("TopQueries = %+v, want %+v", top, want)
	}

	if _, err := st.IncrementQuery(ctx, "   "); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("blank query error = %v, want ErrInvalidInput", err)
	}
}

func TestReports(t *testing.T) {
	ctx := context.Background()
	st, path := openTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, text := range []string{"一件目", "二件目", "三件目"} {
		_, err := st.AddReport(ctx, history.Report{
			Text:      text,
			Judgement: "問題なし",
			Verdict:   "flagged_dictionary",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("AddReport: %v", err)
		}
	}

	got, err := st.Reports(ctx, 2)
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(got) != 2 || got[0].Text != "三件目" || got[1].Text != "二件目" {
		t.Fatalf("Reports = %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("CreatedAt = %v", got[0].CreatedAt)
	}
	if got[0].Judgement != "問題なし" || got[0].Verdict != "flagged_dictionary" {
		t.Errorf("fields not round-tripped: %+v", got[0])
	}

	// Data survives reopening.
	st.Close()
	st2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	all, err := st2.Reports(ctx, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("Reports after reopen = %d, %v; want 3", len(all), err)
	}
}

func TestReportValidation(t *testing.T) {
	st, _ := openTestStore(t)
	if _, err := st.AddReport(context.Background(), history.Report{Text: ""}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}
