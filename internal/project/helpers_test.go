package project

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boostify/editor-agent/internal/db"
	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/render"
	"github.com/boostify/editor-agent/internal/timeline"
)

type fakeRender struct {
	mu          sync.Mutex
	submitted   []render.ExportRequest
	submitResp  *render.ExportResponse
	submitErr   error
	statuses    map[string]*render.JobStatus
	statusErr   error
	statusCalls int
}

func newFakeRender() *fakeRender {
	return &fakeRender{statuses: make(map[string]*render.JobStatus)}
}

func (f *fakeRender) SubmitExport(ctx context.Context, req render.ExportRequest) (*render.ExportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	return f.submitResp, f.submitErr
}

func (f *fakeRender) JobStatus(ctx context.Context, jobID string) (*render.JobStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	st, ok := f.statuses[jobID]
	if !ok {
		return nil, &render.StatusError{StatusCode: 404, Message: "job not found"}
	}
	cp := *st
	return &cp, nil
}

func (f *fakeRender) setStatus(jobID string, st render.JobStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[jobID] = &st
}

func (f *fakeRender) submitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

// blockingSubmitter holds every submission until the test releases it.
type blockingSubmitter struct {
	started chan struct{}
	release chan *render.ExportResponse
}

func newBlockingSubmitter() *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan struct{}, 1),
		release: make(chan *render.ExportResponse),
	}
}

func (b *blockingSubmitter) SubmitExport(ctx context.Context, req render.ExportRequest) (*render.ExportResponse, error) {
	b.started <- struct{}{}
	select {
	case resp := <-b.release:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// hookRepo runs callbacks around selected repository writes so tests can
// land a second writer inside the service's load/save window.
type hookRepo struct {
	Repository
	beforeUpdateProject func(p *Project)
	afterCreateExport   func(j *ExportJob)
}

func (h *hookRepo) UpdateProject(ctx context.Context, p *Project) error {
	if fn := h.beforeUpdateProject; fn != nil {
		h.beforeUpdateProject = nil
		fn(p)
	}
	return h.Repository.UpdateProject(ctx, p)
}

func (h *hookRepo) CreateExport(ctx context.Context, j *ExportJob) error {
	if err := h.Repository.CreateExport(ctx, j); err != nil {
		return err
	}
	if fn := h.afterCreateExport; fn != nil {
		h.afterCreateExport = nil
		fn(j)
	}
	return nil
}

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return NewRepository(database.Conn())
}

func setupService(t *testing.T) (*Service, *SQLiteRepository, *fakeRender) {
	t.Helper()

	repo := openTestRepo(t)
	fake := newFakeRender()
	svc := NewService(repo, fake, logging.Discard())
	return svc, repo, fake
}

// seedProject creates a project with one image clip on its video track and
// one audio track holding a song.
func seedProject(t *testing.T, svc *Service) *Project {
	t.Helper()
	ctx := context.Background()

	p, err := svc.CreateProject(ctx, CreateInput{Name: "Launch Video", AudioURL: "https://x/master.mp3"})
	require.NoError(t, err)

	_, err = svc.AddClip(ctx, p.ID, timeline.Clip{
		TrackID: p.Session.Tracks[0].ID, Type: timeline.ClipImage,
		Start: 0, Duration: 8, URL: "https://x/cover.png",
	})
	require.NoError(t, err)

	audio, err := svc.AddTrack(ctx, p.ID, timeline.TrackAudio)
	require.NoError(t, err)
	_, err = svc.AddClip(ctx, p.ID, timeline.Clip{
		TrackID: audio.ID, Type: timeline.ClipAudio, Start: 0, Duration: 8, URL: "https://x/song.mp3",
	})
	require.NoError(t, err)

	p, err = svc.GetProject(ctx, p.ID)
	require.NoError(t, err)
	return p
}

func insertExport(t *testing.T, repo *SQLiteRepository, projectID, status, remoteID string, createdAt time.Time) *ExportJob {
	t.Helper()

	j := &ExportJob{
		ID:          timeline.NewID(),
		ProjectID:   projectID,
		RemoteJobID: remoteID,
		Status:      status,
		Format:      "mp4",
		Width:       1920,
		Height:      1080,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, repo.CreateExport(context.Background(), j))
	return j
}
