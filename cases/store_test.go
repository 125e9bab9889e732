package cases

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"courtsim/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalog = `{
  "cases": [
    {
      "case_id": "C1",
      "title": "Alpha v. Beta",
      "case_type": "Contract Dispute",
      "description": "late delivery",
      "facts": ["goods late"],
      "parties": {"plaintiff": {"name": "Alpha"}, "defendant": {"name": "Beta"}},
      "evidence": [
        {"title": "Contract", "type": "Documentary Evidence", "description": "signed", "submitted_by": "plaintiff"},
        {"id": "X9", "title": "Photos", "type": "photographic", "description": "damage"}
      ],
      "witnesses": [{"name": "Ravi", "background": "manager"}]
    }
  ]
}`

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestJSONStoreLoad(t *testing.T) {
	store := NewJSONStore(writeCatalog(t, catalog))

	c, err := store.Load(context.Background(), "C1")
	require.NoError(t, err)

	assert.Equal(t, "Alpha v. Beta", c.Title)
	assert.Equal(t, "Alpha", c.Plaintiff.Name)
	require.Len(t, c.Evidence, 2)
	assert.Equal(t, "E1", c.Evidence[0].ID)
	assert.Equal(t, models.EvidenceDocumentary, c.Evidence[0].Type)
	assert.Equal(t, models.SidePlaintiff, c.Evidence[0].SubmittedBy)
	assert.Equal(t, "X9", c.Evidence[1].ID)
	assert.Equal(t, models.EvidencePhotographic, c.Evidence[1].Type)

	require.Len(t, c.Witnesses, 1)
	assert.Equal(t, models.SidePlaintiff, c.Witnesses[0].Side, "missing side defaults to plaintiff")
	assert.Equal(t, models.DefaultJudge, c.Judge)
}

func TestJSONStoreNotFound(t *testing.T) {
	store := NewJSONStore(writeCatalog(t, catalog))

	_, err := store.Load(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.ID)
}

func TestJSONStoreLoadReturnsCopy(t *testing.T) {
	store := NewJSONStore(writeCatalog(t, catalog))

	c, err := store.Load(context.Background(), "C1")
	require.NoError(t, err)
	c.Title = "changed"
	c.Evidence[0].Title = "changed"
	c.Witnesses[0].Name = "changed"
	c.Facts = append(c.Facts[:0], "changed")

	again, err := store.Load(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha v. Beta", again.Title)
	assert.Equal(t, "Contract", again.Evidence[0].Title)
	assert.Equal(t, "Ravi", again.Witnesses[0].Name)
	assert.Equal(t, []string{"goods late"}, again.Facts)

	all, err := store.All(context.Background())
	require.NoError(t, err)
	all[0].Evidence[0].Title = "changed"
	again, err = store.Load(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "Contract", again.Evidence[0].Title)
}

func TestJSONStoreNormalizesSides(t *testing.T) {
	body := `{"cases":[{"case_id":"C1","title":"t",
		"evidence":[{"title":"x","type":"photographic","submitted_by":"Defence"}],
		"witnesses":[{"name":"Ravi","side":"Defendant"},{"name":"Meera","side":" PLAINTIFF "}]}]}`
	store := NewJSONStore(writeCatalog(t, body))

	c, err := store.Load(context.Background(), "C1")
	require.NoError(t, err)
	assert.Equal(t, models.SideDefendant, c.Evidence[0].SubmittedBy)
	require.Len(t, c.Witnesses, 2)
	assert.Equal(t, models.SideDefendant, c.Witnesses[0].Side)
	assert.Equal(t, models.RoleDefendantCounsel, models.CounselFor(c.Witnesses[0].Side))
	assert.Equal(t, models.SidePlaintiff, c.Witnesses[1].Side)
}

func TestJSONStoreRejectsUnknownSide(t *testing.T) {
	body := `{"cases":[{"case_id":"C1","title":"t","witnesses":[{"name":"Ravi","side":"prosecution"}]}]}`
	store := NewJSONStore(writeCatalog(t, body))

	_, err := store.Load(context.Background(), "C1")
	assert.ErrorContains(t, err, "unknown side")
}

func TestJSONStoreList(t *testing.T) {
	store := NewJSONStore(writeCatalog(t, catalog))

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.CaseSummary{{ID: "C1", Title: "Alpha v. Beta", CaseType: "Contract Dispute"}}, list)
}

func TestJSONStoreRejectsUnknownEvidenceType(t *testing.T) {
	body := `{"cases":[{"case_id":"C1","title":"t","evidence":[{"title":"x","type":"hearsay"}]}]}`
	store := NewJSONStore(writeCatalog(t, body))

	_, err := store.Load(context.Background(), "C1")
	assert.ErrorContains(t, err, "unknown type")
}

func TestJSONStoreMissingFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "nope.json"))
	_, err := store.List(context.Background())
	assert.Error(t, err)
}

func TestBundledCatalogLoads(t *testing.T) {
	store := NewJSONStore("../data/cases.json")

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)

	empty, err := store.Load(context.Background(), "CIV-1003")
	require.NoError(t, err)
	assert.Empty(t, empty.Witnesses)
	assert.Empty(t, empty.Evidence)
}

func TestOverlay(t *testing.T) {
	base := NewJSONStore(writeCatalog(t, catalog))
	overlay := NewOverlay(base)
	overlay.Add(models.Case{ID: "CUSTOM-1", Title: "Custom", CaseType: "Civil"})

	c, err := overlay.Load(context.Background(), "CUSTOM-1")
	require.NoError(t, err)
	assert.Equal(t, "Custom", c.Title)

	_, err = overlay.Load(context.Background(), "C1")
	assert.NoError(t, err)

	_, err = overlay.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := overlay.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "CUSTOM-1", list[1].ID)
}
