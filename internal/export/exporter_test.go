package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/boostify/editor-agent/internal/logging"
	"github.com/boostify/editor-agent/internal/render"
	"github.com/boostify/editor-agent/internal/timeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSubmitter struct {
	mu       sync.Mutex
	calls    int
	last     render.ExportRequest
	resp     *render.ExportResponse
	err      error
	block    chan struct{}
	entered  chan struct{}
	panicMsg string
}

func (f *fakeSubmitter) SubmitExport(ctx context.Context, req render.ExportRequest) (*render.ExportResponse, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()

	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type completions struct {
	mu   sync.Mutex
	urls []string
}

func (c *completions) record(projectID, url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urls = append(c.urls, projectID+" "+url)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExporter_NoClipsNeverCallsNetwork(t *testing.T) {
	sub := &fakeSubmitter{resp: &render.ExportResponse{DownloadURL: "https://x/y.mp4"}}
	done := &completions{}
	ex := NewExporter(sub, discardLogger(), done.record)

	_, err := ex.Export(context.Background(), "p1", timeline.NewSession(), Settings{}, Options{})

	assert.ErrorIs(t, err, ErrNoClips)
	assert.Equal(t, 0, sub.callCount())
	assert.Empty(t, done.urls)

	st := ex.State("p1")
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, OutcomeFailed, st.LastOutcome)
	assert.Equal(t, ErrNoClips.Error(), st.LastError)
}

func TestExporter_DownloadURLCompletesOnce(t *testing.T) {
	sub := &fakeSubmitter{resp: &render.ExportResponse{DownloadURL: "https://x/y.mp4"}}
	done := &completions{}
	ex := NewExporter(sub, discardLogger(), done.record)

	res, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{Quality: "draft"}, Options{ProjectName: "Demo"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, res.Status)
	assert.Equal(t, "https://x/y.mp4", res.DownloadURL)
	assert.Equal(t, "draft", res.Config.Quality.ID)
	assert.Equal(t, []string{"p1 https://x/y.mp4"}, done.urls)
	assert.Equal(t, 1, sub.callCount())
	assert.Equal(t, "Demo", sub.last.ProjectName)
	assert.Equal(t, 24, sub.last.Settings.FPS)

	st := ex.State("p1")
	assert.False(t, st.Exporting())
	assert.Equal(t, OutcomeCompleted, st.LastOutcome)
	assert.Equal(t, "https://x/y.mp4", st.DownloadURL)
}

func TestExporter_LogsRedactSignedURL(t *testing.T) {
	signed := "https://storage.example/out.mp4?X-Goog-Signature=secret"
	sub := &fakeSubmitter{resp: &render.ExportResponse{DownloadURL: signed}}
	var buf bytes.Buffer
	ex := NewExporter(sub, logging.NewLoggerTo(&buf, "info"), nil)

	res, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, signed, res.DownloadURL)
	assert.Contains(t, buf.String(), "https://storage.example/out.mp4?...")
	assert.NotContains(t, buf.String(), "secret")
}

func TestExporter_JobIDQueues(t *testing.T) {
	sub := &fakeSubmitter{resp: &render.ExportResponse{JobID: "job-1"}}
	done := &completions{}
	ex := NewExporter(sub, discardLogger(), done.record)

	res, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeQueued, res.Status)
	assert.Equal(t, "job-1", res.JobID)
	assert.Empty(t, done.urls)
	assert.Equal(t, OutcomeQueued, ex.State("p1").LastOutcome)
	assert.Equal(t, "job-1", ex.State("p1").JobID)
}

func TestExporter_EmptyResponse(t *testing.T) {
	for _, resp := range []*render.ExportResponse{nil, {}} {
		sub := &fakeSubmitter{resp: resp}
		ex := NewExporter(sub, discardLogger(), nil)

		_, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
		assert.ErrorIs(t, err, ErrEmptyResponse)
		assert.Equal(t, PhaseIdle, ex.State("p1").Phase)
	}
}

func TestExporter_ServerErrorSurfacedVerbatim(t *testing.T) {
	sub := &fakeSubmitter{err: &render.StatusError{StatusCode: 500, Message: "disk full"}}
	done := &completions{}
	ex := NewExporter(sub, discardLogger(), done.record)

	_, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	require.Error(t, err)
	assert.Equal(t, "disk full", err.Error())

	var se *render.StatusError
	assert.True(t, errors.As(err, &se))
	assert.Empty(t, done.urls)

	st := ex.State("p1")
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Equal(t, "disk full", st.LastError)
}

func TestExporter_UnknownPresetNeverCallsNetwork(t *testing.T) {
	sub := &fakeSubmitter{resp: &render.ExportResponse{DownloadURL: "u"}}
	ex := NewExporter(sub, discardLogger(), nil)

	_, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{Format: "avi"}, Options{})
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, 0, sub.callCount())
}

func TestExporter_RefusesConcurrentExportForSameProject(t *testing.T) {
	sub := &fakeSubmitter{
		resp:    &render.ExportResponse{JobID: "job-1"},
		block:   make(chan struct{}),
		entered: make(chan struct{}),
	}
	ex := NewExporter(sub, discardLogger(), nil)

	first := payloadSession(t)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := ex.Export(context.Background(), "p1", first, Settings{}, Options{})
		assert.NoError(t, err)
	}()

	<-sub.entered
	st := ex.State("p1")
	assert.Equal(t, PhaseSubmitting, st.Phase)
	assert.True(t, st.Exporting())

	_, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	assert.ErrorIs(t, err, ErrExportInProgress)

	close(sub.block)
	wg.Wait()

	assert.Equal(t, PhaseIdle, ex.State("p1").Phase)
	assert.Equal(t, 1, sub.callCount())
}

func TestExporter_PanicBecomesError(t *testing.T) {
	sub := &fakeSubmitter{panicMsg: "boom"}
	ex := NewExporter(sub, discardLogger(), nil)

	_, err := ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.Equal(t, PhaseIdle, ex.State("p1").Phase)

	sub.panicMsg = ""
	sub.resp = &render.ExportResponse{JobID: "j"}
	_, err = ex.Export(context.Background(), "p1", payloadSession(t), Settings{}, Options{})
	assert.NoError(t, err)
}

func TestExporter_StateUnknownProject(t *testing.T) {
	ex := NewExporter(&fakeSubmitter{}, discardLogger(), nil)
	st := ex.State("nope")
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.LastOutcome)
}
