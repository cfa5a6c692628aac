package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/smartmute/internal/audioshake"
)

// mockClient is a testify mock of the AudioShake client.
type mockClient struct {
	mock.Mock
}

func (m *mockClient) Upload(ctx context.Context, path string) (audioshake.Asset, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(audioshake.Asset), args.Error(1)
}

func (m *mockClient) CreateJob(ctx context.Context, assetID string, meta audioshake.Metadata, callbackURL string) (audioshake.Job, error) {
	args := m.Called(ctx, assetID, meta, callbackURL)
	return args.Get(0).(audioshake.Job), args.Error(1)
}

func (m *mockClient) GetJob(ctx context.Context, jobID string) (audioshake.Job, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(audioshake.Job), args.Error(1)
}

func (m *mockClient) Download(ctx context.Context, link, destPath string) error {
	args := m.Called(ctx, link, destPath)
	return args.Error(0)
}

var _ audioshake.Client = (*mockClient)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastOptions keeps poll loops tight so tests stay quick.
func fastOptions(outputDir string) Options {
	return Options{
		OutputDir:    outputDir,
		PollInterval: time.Millisecond,
		Timeout:      time.Second,
	}
}

func TestDriver_Run_SingleOutput(t *testing.T) {
	outputDir := t.TempDir()
	meta := audioshake.Metadata{Name: "music_removal", Format: "wav"}

	client := new(mockClient)
	client.On("Upload", mock.Anything, "/tmp/song.wav").
		Return(audioshake.Asset{ID: "asset-1", Name: "song.wav"}, nil)
	client.On("CreateJob", mock.Anything, "asset-1", meta, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusProcessing}, nil).Once()
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{
			ID:     "job-1",
			Status: audioshake.StatusCompleted,
			OutputAssets: []audioshake.OutputAsset{
				{Name: "result.wav", Link: "https://cdn.example.com/result.wav"},
			},
		}, nil).Once()
	client.On("Download", mock.Anything, "https://cdn.example.com/result.wav",
		filepath.Join(outputDir, "song_music_removal.wav")).Return(nil)

	driver := NewDriver(client, testLogger())
	res, err := driver.Run(context.Background(), "/tmp/song.wav", meta, fastOptions(outputDir))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outputDir, "song_music_removal.wav"), res.OutputPath)
	assert.Empty(t, res.OutputPaths)
	assert.Equal(t, meta, res.Metadata)
	assert.Equal(t, audioshake.StatusCompleted, res.Job.Status)
	client.AssertExpectations(t)
}

func TestDriver_Run_DefaultOutputExtension(t *testing.T) {
	outputDir := t.TempDir()
	meta := audioshake.Metadata{Name: "music_detection", Format: "json"}

	client := new(mockClient)
	client.On("Upload", mock.Anything, mock.Anything).
		Return(audioshake.Asset{ID: "asset-1"}, nil)
	client.On("CreateJob", mock.Anything, "asset-1", meta, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{
			ID:     "job-1",
			Status: audioshake.StatusCompleted,
			OutputAssets: []audioshake.OutputAsset{
				// No extension on the asset name.
				{Name: "segments", Link: "https://cdn.example.com/segments"},
			},
		}, nil)
	client.On("Download", mock.Anything, mock.Anything,
		filepath.Join(outputDir, "song_music_detection.wav")).Return(nil)

	driver := NewDriver(client, testLogger())
	res, err := driver.Run(context.Background(), "song.wav", meta, fastOptions(outputDir))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outputDir, "song_music_detection.wav"), res.OutputPath)
}

func TestDriver_Run_MultipleOutputs(t *testing.T) {
	outputDir := t.TempDir()
	meta := audioshake.Metadata{Name: "stems", Format: "wav"}

	client := new(mockClient)
	client.On("Upload", mock.Anything, mock.Anything).
		Return(audioshake.Asset{ID: "asset-1"}, nil)
	client.On("CreateJob", mock.Anything, "asset-1", meta, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{
			ID:     "job-1",
			Status: audioshake.StatusCompleted,
			OutputAssets: []audioshake.OutputAsset{
				{Name: "vocals.wav", Link: "https://cdn.example.com/1"},
				{Name: "report.json", Link: "https://cdn.example.com/2"},
				// Outputs without links are skipped.
				{Name: "pending.wav"},
			},
		}, nil)
	client.On("Download", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	driver := NewDriver(client, testLogger())
	res, err := driver.Run(context.Background(), "song.wav", meta, fastOptions(outputDir))
	require.NoError(t, err)

	assert.Empty(t, res.OutputPath)
	assert.Equal(t, []string{
		filepath.Join(outputDir, "song_stems.wav"),
		filepath.Join(outputDir, "song_stems.json"),
	}, res.OutputPaths)
}

func TestDriver_Run_UploadError(t *testing.T) {
	client := new(mockClient)
	client.On("Upload", mock.Anything, mock.Anything).
		Return(audioshake.Asset{}, errors.New("connection refused"))

	driver := NewDriver(client, testLogger())
	_, err := driver.Run(context.Background(), "song.wav", audioshake.Metadata{Name: "music_removal"}, Options{})
	assert.ErrorIs(t, err, ErrUpload)
}

func TestDriver_RunAsset_SubmissionError(t *testing.T) {
	client := new(mockClient)
	client.On("CreateJob", mock.Anything, "asset-1", mock.Anything, "").
		Return(audioshake.Job{}, errors.New("unknown model"))

	driver := NewDriver(client, testLogger())
	_, err := driver.RunAsset(context.Background(), "asset-1", "song", audioshake.Metadata{Name: "bogus"}, Options{})
	assert.ErrorIs(t, err, ErrSubmission)
}

func TestDriver_RunAsset_RemoteFailure(t *testing.T) {
	client := new(mockClient)
	client.On("CreateJob", mock.Anything, "asset-1", mock.Anything, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{
			ID:     "job-1",
			Status: audioshake.StatusFailed,
			Error:  "decode failure",
		}, nil)

	driver := NewDriver(client, testLogger())
	_, err := driver.RunAsset(context.Background(), "asset-1", "song",
		audioshake.Metadata{Name: "music_removal"}, fastOptions(t.TempDir()))

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "job-1", remoteErr.JobID)
	assert.Equal(t, audioshake.StatusFailed, remoteErr.Status)
	assert.Equal(t, "decode failure", remoteErr.Detail)
	assert.Equal(t, "not available", remoteErr.Message)
}

func TestDriver_RunAsset_ErrorStatusWithoutDiagnostics(t *testing.T) {
	client := new(mockClient)
	client.On("CreateJob", mock.Anything, "asset-1", mock.Anything, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusError}, nil)

	driver := NewDriver(client, testLogger())
	_, err := driver.RunAsset(context.Background(), "asset-1", "song",
		audioshake.Metadata{Name: "music_removal"}, fastOptions(t.TempDir()))

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "not available", remoteErr.Detail)
	assert.Equal(t, "not available", remoteErr.Message)
	assert.Contains(t, err.Error(), "not available")
}

func TestDriver_RunAsset_Timeout(t *testing.T) {
	client := new(mockClient)
	client.On("CreateJob", mock.Anything, "asset-1", mock.Anything, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusProcessing}, nil)

	driver := NewDriver(client, testLogger())
	_, err := driver.RunAsset(context.Background(), "asset-1", "song",
		audioshake.Metadata{Name: "music_removal"},
		Options{PollInterval: time.Millisecond, Timeout: 10 * time.Millisecond})

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "job-1", timeoutErr.JobID)
	assert.Greater(t, timeoutErr.Elapsed, 10*time.Millisecond)
}

func TestDriver_RunAsset_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := new(mockClient)
	client.On("CreateJob", mock.Anything, "asset-1", mock.Anything, "").
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusQueued}, nil)
	client.On("GetJob", mock.Anything, "job-1").
		Run(func(mock.Arguments) { cancel() }).
		Return(audioshake.Job{ID: "job-1", Status: audioshake.StatusProcessing}, nil)

	driver := NewDriver(client, testLogger())
	_, err := driver.RunAsset(ctx, "asset-1", "song",
		audioshake.Metadata{Name: "music_removal"}, fastOptions(t.TempDir()))
	assert.ErrorIs(t, err, context.Canceled)
}
