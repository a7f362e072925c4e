package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boostify/editor-agent/internal/timeline"
)

func TestRepository_ProjectRoundTrip(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	p := seedProject(t, svc)

	got, err := repo.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Launch Video", got.Name)
	assert.Equal(t, "16:9", got.AspectRatio)
	assert.Equal(t, "https://x/master.mp3", got.AudioURL)
	require.Len(t, got.Session.Tracks, 2)
	require.Len(t, got.Session.Clips, 2)
	assert.Equal(t, timeline.TrackAudio, got.Session.Tracks[1].Type)
	assert.Equal(t, timeline.LayerAudio, got.Session.Clips[1].LayerID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestRepository_GetProjectMissing(t *testing.T) {
	_, repo, _ := setupService(t)

	got, err := repo.GetProject(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_ListExportsNewestFirst(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	p := seedProject(t, svc)

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	first := insertExport(t, repo, p.ID, ExportStatusCompleted, "", base)
	second := insertExport(t, repo, p.ID, ExportStatusQueued, "job-2", base.Add(500*time.Millisecond))
	third := insertExport(t, repo, p.ID, ExportStatusRendering, "job-3", base.Add(2*time.Second))

	jobs, err := repo.ListExports(ctx, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})

	active, err := repo.ListActiveExports(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, "job-2", active[0].RemoteJobID)
}

func TestRepository_DeleteProjectCascadesExports(t *testing.T) {
	svc, repo, _ := setupService(t)
	ctx := context.Background()
	p := seedProject(t, svc)
	j := insertExport(t, repo, p.ID, ExportStatusQueued, "job-1", time.Now())

	require.NoError(t, repo.DeleteProject(ctx, p.ID))

	got, err := repo.GetExport(ctx, j.ID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepository_Config(t *testing.T) {
	_, repo, _ := setupService(t)
	ctx := context.Background()

	v, err := repo.GetConfig(ctx, ConfigAuthToken)
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, repo.SetConfig(ctx, ConfigAuthToken, "first"))
	require.NoError(t, repo.SetConfig(ctx, ConfigAuthToken, "second"))

	v, err = repo.GetConfig(ctx, ConfigAuthToken)
	require.NoError(t, err)
	assert.Equal(t, "second", v)
}
