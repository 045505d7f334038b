package expertise

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"mentoring-svc/src/internal/database"
	"mentoring-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *sql.DB) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "expertise.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunSqliteMigrations(db))

	_, err = db.Exec(`INSERT INTO users(username, password_hash) VALUES ('alice', 'x')`)
	require.NoError(t, err)

	svc := NewService(NewRepository(db))
	require.NoError(t, svc.SyncCatalog(context.Background(), []Subject{
		{ID: "a", Name: "Art"}, {ID: "b", Name: "Biology"}, {ID: "c", Name: "Chemistry"},
	}))
	return svc, db
}

func ids(e *Expertise) []string {
	out := make([]string, 0, len(e.Subjects))
	for _, s := range e.Subjects {
		out = append(out, s.ID)
	}
	return out
}

func TestReplace_IsNotAUnion(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"a", "b"}, YearGroup: "Y10"}))
	require.NoError(t, svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"b", "c"}, YearGroup: "Y11"}))

	got, err := svc.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids(got))
	assert.Equal(t, "Y11", got.YearGroup)
}

func TestReplace_EmptySetClearsAll(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"a", "a", "b"}, YearGroup: "Y9"}))
	got, err := svc.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))

	require.NoError(t, svc.Replace(ctx, "alice", &SubmitRequest{YearGroup: "None"}))
	got, err = svc.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, got.Subjects)
	assert.Empty(t, got.YearGroup)
}

func TestReplace_InvalidInputKeepsPreviousSet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	require.NoError(t, svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"a"}, YearGroup: "Y12"}))

	var verr *models.ValidationError
	err := svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"b"}, YearGroup: "Y13"})
	assert.True(t, errors.As(err, &verr))

	err = svc.Replace(ctx, "alice", &SubmitRequest{Subjects: []string{"zzz"}, YearGroup: "Y12"})
	assert.True(t, errors.As(err, &verr))

	got, err := svc.ForUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(got))
	assert.Equal(t, "Y12", got.YearGroup)
}

func TestReplace_UnknownUserRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)

	err := svc.Replace(ctx, "ghost", &SubmitRequest{Subjects: []string{"a"}})
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM subject_associations`).Scan(&n))
	assert.Zero(t, n)
}

func TestSyncCatalog_Upserts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.NoError(t, svc.SyncCatalog(ctx, []Subject{{ID: "a", Name: "Fine Art"}}))
	catalog, err := svc.Catalog(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 3)
	assert.Contains(t, catalog, Subject{ID: "a", Name: "Fine Art"})

	assert.Error(t, svc.SyncCatalog(ctx, []Subject{{ID: "", Name: "x"}}))
}

func TestNormalizeYearGroup(t *testing.T) {
	for in, want := range map[string]string{"": "", "None": "", "Y9": "Y9", "Y12": "Y12"} {
		got, ok := NormalizeYearGroup(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := NormalizeYearGroup("Y8")
	assert.False(t, ok)
}
