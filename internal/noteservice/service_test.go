package noteservice_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notesift/internal/apperr"
	"github.com/starford/notesift/internal/testutil"
)

var vault = map[string]string{
	"index.md":          "---\ntitle: Index\ntags: [home]\n---\n# Index\n",
	"work/plan.md":      "---\ntitle: Plan\ntags: [todo, home]\n---\nship it\n",
	"work/meet/sync.md": "weekly sync\n",
	"work.d/skip.md":    "dotted directory\n",
	"bin/blob.md":       "\xff\xfe\x00",
}

func TestGetNote(t *testing.T) {
	svc, _ := testutil.TestService(t, vault)

	note, err := svc.GetNote(context.Background(), "work/plan.md")
	require.NoError(t, err)
	assert.Equal(t, "work/plan.md", note.Path)
	assert.Equal(t, "Plan", note.Title)
	assert.Equal(t, []string{"todo", "home"}, note.Tags)
	assert.Equal(t, []string{"work"}, note.Category)
	assert.Len(t, note.Checksum, 64)
}

func TestGetNote_Errors(t *testing.T) {
	svc, _ := testutil.TestService(t, vault)
	ctx := context.Background()

	for _, p := range []string{"", "missing.md", "work", "work/meet"} {
		_, err := svc.GetNote(ctx, p)
		assert.ErrorIs(t, err, apperr.ErrNotFound, p)
	}
	_, err := svc.GetNote(ctx, "../escape.md")
	assert.ErrorIs(t, err, apperr.ErrInvalidPath)
}

func TestRenderNote(t *testing.T) {
	svc, _ := testutil.TestService(t, vault)

	html, err := svc.RenderNote(context.Background(), "index.md")
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1")
	assert.NotContains(t, string(html), "tags:")
}

func TestListNotes(t *testing.T) {
	svc, _ := testutil.TestService(t, vault)
	ctx := context.Background()

	paths := func(category, tag string) []string {
		items, err := svc.ListNotes(ctx, category, tag)
		require.NoError(t, err)
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.Path
		}
		return out
	}

	assert.Equal(t, []string{"index.md", "work.d/skip.md", "work/meet/sync.md", "work/plan.md"}, paths("", ""))
	assert.Equal(t, []string{"work/meet/sync.md", "work/plan.md"}, paths("work", ""))
	assert.Equal(t, []string{"index.md", "work/plan.md"}, paths("", "home"))
	assert.Equal(t, []string{"work/plan.md"}, paths("work", "home"))
	assert.Empty(t, paths("nowhere", ""))
}

func TestSearch(t *testing.T) {
	svc, _ := testutil.TestService(t, vault)
	ctx := context.Background()

	hits, err := svc.Search(ctx, "ship|weekly")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "work/meet/sync.md", hits[0].Path)
	assert.Equal(t, "Plan", hits[1].Title)

	hits, err = svc.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)

	_, err = svc.Search(ctx, "(")
	assert.ErrorIs(t, err, apperr.ErrInvalidPattern)
}

func TestCategoriesAndStats(t *testing.T) {
	svc, root := testutil.TestService(t, vault)
	ctx := context.Background()

	tree, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(root), tree.Name)
	assert.NotNil(t, tree.Child("work.d"))
	assert.NotNil(t, tree.Child("work").Child("meet"))

	report, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Total)
	require.NotEmpty(t, report.Tags)
	assert.Equal(t, "home", report.Tags[0].Name)
	assert.Equal(t, 2, report.Tags[0].Notes)
}

func TestInvalidate(t *testing.T) {
	svc, root := testutil.TestService(t, vault)
	ctx := context.Background()

	_, err := svc.Search(ctx, ".")
	require.NoError(t, err)

	p := filepath.Join(root, "index.md")
	require.NoError(t, os.WriteFile(p, []byte("# Index\nrewritten\n"), 0o644))
	svc.Invalidate(p)

	hits, err := svc.Search(ctx, "rewritten")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.True(t, strings.HasSuffix(hits[0].Path, "index.md"))
}
