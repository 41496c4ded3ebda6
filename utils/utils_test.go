package utils

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"ninma/database"
	"ninma/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Congresso de Educação Ambiental": "congresso-de-educacao-ambiental",
		"  Semana   de Letras!  ":         "semana-de-letras",
		"Oficina -- Poesia & Prosa":       "oficina-poesia-prosa",
		"snake_case_title":                "snake-case-title",
		"Ação, Reação?":                   "acao-reacao",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestRandomString(t *testing.T) {
	s, err := RandomString(5)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{5}$`), s)
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "meu_artigo__final_.pdf", SanitizeFileName("meu artigo (final).pdf", 50))
	assert.Len(t, SanitizeFileName(strings.Repeat("a", 80)+".pdf", 50), 50)
}

func multipartFile(t *testing.T, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveAndDeleteSubmissionFile(t *testing.T) {
	dir := t.TempDir()
	fh := multipartFile(t, "Meu Artigo.pdf", "application/pdf", []byte("%PDF-1.4 test"))

	saved, err := SaveSubmissionFile(fh, dir, 10<<20)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/submissions/\d+-[a-z0-9]{6}-Meu_Artigo\.pdf$`), saved.FileURL)
	assert.Equal(t, "Meu Artigo.pdf", saved.FileName)
	assert.Equal(t, "application/pdf", saved.MimeType)

	stored := filepath.Join(dir, strings.TrimPrefix(saved.FileURL, SubmissionURLPrefix))
	_, err = os.Stat(stored)
	require.NoError(t, err)

	require.NoError(t, DeleteSubmissionFile(saved.FileURL, dir))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, DeleteSubmissionFile(saved.FileURL, dir), "already gone")
	assert.ErrorIs(t, DeleteSubmissionFile("/etc/passwd", dir), ErrInvalidFileURL)
	assert.ErrorIs(t, DeleteSubmissionFile(SubmissionURLPrefix+"../x", dir), ErrInvalidFileURL)
}

func TestSaveSubmissionFileRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := SaveSubmissionFile(multipartFile(t, "a.png", "image/png", []byte("x")), dir, 10<<20)
	assert.ErrorIs(t, err, ErrFileType)

	_, err = SaveSubmissionFile(multipartFile(t, "a.exe", "application/pdf", []byte("x")), dir, 10<<20)
	assert.ErrorIs(t, err, ErrFileExtension)

	_, err = SaveSubmissionFile(multipartFile(t, "a.pdf", "application/pdf", []byte("0123456789")), dir, 5)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestAdvanceEventLifecycle(t *testing.T) {
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), "silent")
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(db))

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	owner := models.User{Name: "coord", Email: "coord@ninma.test", Password: "x", Role: models.RoleCoordinator}
	require.NoError(t, db.Create(&owner).Error)

	mk := func(slug, status string, start, end time.Time) string {
		e := models.Event{Title: slug, Slug: slug, Type: models.EventTypeOther, Status: status, StartDate: start, EndDate: end, CreatedByID: owner.ID}
		require.NoError(t, db.Omit("CreatedBy").Create(&e).Error)
		return e.ID
	}
	running := mk("running", models.EventOpen, now.Add(-time.Hour), now.Add(time.Hour))
	finished := mk("finished", models.EventInProgress, now.Add(-48*time.Hour), now.Add(-time.Hour))
	future := mk("future", models.EventOpen, now.Add(time.Hour), now.Add(2*time.Hour))
	draft := mk("draft", models.EventDraft, now.Add(-time.Hour), now.Add(time.Hour))

	started, completed, err := AdvanceEventLifecycle(db, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, started)
	assert.EqualValues(t, 1, completed)

	status := func(id string) string {
		var e models.Event
		require.NoError(t, db.Select("status").First(&e, "id = ?", id).Error)
		return e.Status
	}
	assert.Equal(t, models.EventInProgress, status(running))
	assert.Equal(t, models.EventCompleted, status(finished))
	assert.Equal(t, models.EventOpen, status(future))
	assert.Equal(t, models.EventDraft, status(draft))
}
