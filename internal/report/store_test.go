package report

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drew/jobreport/internal/toc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadedStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	writeArchive(t, dir, "12", sampleMembers()...)
	writeArchive(t, dir, "13",
		member{name: RawEntry, body: `{"started": 1, "updated": 2, "data": {"alice": {}}}`},
		member{name: "alice.13.header", body: mailHeader},
		member{name: "alice.13.mail", body: mailBody("alice")},
	)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	s := NewStore(testLogger())
	n, err := s.LoadDir(context.Background(), dir, "*.tar.gz", 2)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	return s
}

func TestStoreDeduplicatesSharedContent(t *testing.T) {
	s := loadedStore(t)

	r12, ok := s.Result(12)
	require.True(t, ok)
	r13, ok := s.Result(13)
	require.True(t, ok)

	assert.Equal(t, r12.CommonContent["usage"], r13.CommonContent["usage"])
	assert.NotEqual(t, r12.CommonContent[toc.RootID], r13.CommonContent[toc.RootID])

	content := s.Content()
	assert.Contains(t, content[r12.CommonContent["usage"]], "cluster usage")
	assert.Contains(t, content[r12.CommonContent[toc.RootID]], "period 12:web")
	for _, id := range r12.CommonContent {
		assert.GreaterOrEqual(t, id, 1)
	}

	assert.Contains(t, r12.UserContent["jobs"]["bob"], "bob ran 3 jobs")
	assert.Equal(t, "Your jobs", s.Names()["jobs"])
}

func TestStorePeriods(t *testing.T) {
	s := loadedStore(t)

	assert.Len(t, s.Periods("alice", false), 2)
	bob := s.Periods("bob", false)
	require.Len(t, bob, 1)
	assert.Equal(t, int64(1700003600), bob[12].Updated)
	assert.Empty(t, s.Periods("carol", false))
	assert.Len(t, s.Periods("carol", true), 2)
}

func TestStoreView(t *testing.T) {
	s := loadedStore(t)

	v, err := s.View(12, "bob", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, v.Users())
	_, hasAlice := v.UserContent["jobs"]["alice"]
	assert.False(t, hasAlice)

	admin, err := s.View(12, "root", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, admin.Users())

	_, err = s.View(99, "bob", false)
	assert.ErrorIs(t, err, ErrPeriodNotFound)
	_, err = s.View(13, "bob", false)
	assert.ErrorIs(t, err, ErrNoUserData)
}

func TestStoreRawData(t *testing.T) {
	s := loadedStore(t)

	data, msg := s.RawData([]int{12, 13, 99}, "bob", false)
	assert.Equal(t, "no data for user in period: 13;period not found: 99;", msg)
	require.Contains(t, data, 12)
	assert.Len(t, data[12].Data, 1)
	assert.Contains(t, data[12].Data, "bob")

	all, msg := s.RawData([]int{12}, "root", true)
	assert.Empty(t, msg)
	assert.Len(t, all[12].Data, 2)
}

func TestStoreReloadReplacesPeriodAndNotifies(t *testing.T) {
	s := loadedStore(t)

	var changed []int
	s.OnChange(func(p int) { changed = append(changed, p) })

	path := writeArchive(t, t.TempDir(), "12",
		member{name: RawEntry, body: `{"started": 5, "updated": 6, "data": {"dave": {}}}`},
		member{name: "dave.12.header", body: mailHeader},
		member{name: "dave.12.mail", body: mailBody("dave")},
	)
	period, err := s.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 12, period)
	assert.Equal(t, []int{12}, changed)

	assert.Empty(t, s.Periods("bob", false))
	assert.Len(t, s.Periods("dave", false), 1)
	assert.Equal(t, 2, s.Len())
}

func TestStoreLoadDirSkipsBrokenArchives(t *testing.T) {
	dir := t.TempDir()
	writeArchive(t, dir, "12", sampleMembers()...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "13.tar.gz"), []byte("garbage"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latest.tar.gz"), []byte("garbage"), 0o644))

	s := NewStore(testLogger())
	n, err := s.LoadDir(context.Background(), dir, "*.tar.gz", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Len())
}

func TestPeriodFromPath(t *testing.T) {
	p, err := PeriodFromPath("/data/results/42.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, 42, p)

	_, err = PeriodFromPath("/data/results/42.zip")
	assert.Error(t, err)
	_, err = PeriodFromPath("latest.tar.gz")
	assert.Error(t, err)
}
