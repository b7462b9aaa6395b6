package migrate

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSplitStatements(t *testing.T) {
	src := `
-- leading comment; with a semicolon
create function f() returns trigger as $$
begin
    new.x = 'a;b';
    return new;
end;
$$ language plpgsql;

insert into t(v) values ('it''s; fine');
/* block; comment */ select 1;
select $tag$ ; $tag$;
;
-- trailing comment only
`
	got := SplitStatements(src)
	want := []string{
		"-- leading comment; with a semicolon\ncreate function f() returns trigger as $$\nbegin\n    new.x = 'a;b';\n    return new;\nend;\n$$ language plpgsql",
		"insert into t(v) values ('it''s; fine')",
		"/* block; comment */ select 1",
		"select $tag$ ; $tag$",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected statements:\n%q\nwant\n%q", got, want)
	}
}

func TestSplitStatementsPositionalParams(t *testing.T) {
	got := SplitStatements(`update t set a = $1 where b = $2; select 2`)
	if len(got) != 2 || got[0] != "update t set a = $1 where b = $2" {
		t.Fatalf("unexpected statements: %q", got)
	}
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"0001_init.up.sql":    {Data: []byte("create table a (id int); create table b (id int);")},
		"0001_init.down.sql":  {Data: []byte("drop table b; drop table a;")},
		"0002_more.up.sql":    {Data: []byte("alter table a add column v text;")},
		"0002_more.down.sql":  {Data: []byte("alter table a drop column v;")},
		"seeds/0001_demo.sql": {Data: []byte("insert into a(id) values (1);")},
		"seeds/README.md":     {Data: []byte("not sql")},
		"seeds/old.down.sql":  {Data: []byte("should be ignored;")},
		"notes/0009_x.up.sql": {Data: []byte("ignored: other directory;")},
	}
}

func newMock(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(db, testFS(), ".", "seeds"), mock
}

func expectTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec(`create table if not exists schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table if not exists schema_seeds`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestUpAppliesPendingInOrder(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`alter table a add column v text`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`insert into schema_migrations\(name, applied_at\)`).
		WithArgs("0002_more.up.sql", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := m.Up(context.Background())
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"0002_more.up.sql"}) {
		t.Fatalf("unexpected applied: %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpRollsBackFailedMigration(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_migrations`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(`create table a`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`create table b`).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	applied, err := m.Up(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(applied) != 0 {
		t.Fatalf("nothing should be applied, got %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDownSteps(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql").AddRow("0002_more.up.sql"))
	mock.ExpectBegin()
	mock.ExpectExec(`alter table a drop column v`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from schema_migrations where name = \$1`).
		WithArgs("0002_more.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`drop table b`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`drop table a`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`delete from schema_migrations where name = \$1`).
		WithArgs("0001_init.up.sql").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rolled, err := m.Down(context.Background(), 5)
	if err != nil {
		t.Fatalf("Down: %v", err)
	}
	if !reflect.DeepEqual(rolled, []string{"0002_more.up.sql", "0001_init.up.sql"}) {
		t.Fatalf("unexpected rollback order: %v", rolled)
	}
}

func TestDownWithNothingApplied(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_migrations`).WillReturnRows(sqlmock.NewRows([]string{"name"}))

	if _, err := m.Down(context.Background(), 1); !errors.Is(err, ErrNothingApplied) {
		t.Fatalf("expected ErrNothingApplied, got %v", err)
	}
}

func TestSeedSkipsAppliedAndDownFiles(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_seeds`).WillReturnRows(sqlmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(`insert into a\(id\) values \(1\)`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`insert into schema_seeds\(name, applied_at\)`).
		WithArgs("0001_demo.sql", sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	applied, err := m.Seed(context.Background())
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !reflect.DeepEqual(applied, []string{"0001_demo.sql"}) {
		t.Fatalf("unexpected seeds: %v", applied)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPending(t *testing.T) {
	m, mock := newMock(t)
	expectTables(mock)
	mock.ExpectQuery(`select name from schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("0001_init.up.sql"))

	pending, err := m.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if !reflect.DeepEqual(pending, []string{"0002_more.up.sql"}) {
		t.Fatalf("unexpected pending: %v", pending)
	}
}
