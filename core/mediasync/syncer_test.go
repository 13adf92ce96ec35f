package mediasync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"catalog-reconciler/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeGallery records remote calls in order and can be scripted to fail.
type fakeGallery struct {
	calls      []string
	nextID     int
	failUpload map[string]error // object key -> forced error
	failDelete map[string]error
	coverErr   error
	uploaded   map[int64][]byte
	positions  map[string]int
}

func newFakeGallery() *fakeGallery {
	return &fakeGallery{
		failUpload: make(map[string]error),
		failDelete: make(map[string]error),
		uploaded:   make(map[int64][]byte),
	}
}

func (g *fakeGallery) UploadImage(_ context.Context, item Item, data []byte) (string, error) {
	if err := g.failUpload[item.ObjectKey]; err != nil {
		return "", err
	}
	g.nextID++
	g.calls = append(g.calls, fmt.Sprintf("upload:%s", item.ObjectKey))
	g.uploaded[item.ID] = data
	return fmt.Sprintf("ext-%d", g.nextID), nil
}

func (g *fakeGallery) DeleteImage(_ context.Context, externalID string) error {
	if err := g.failDelete[externalID]; err != nil {
		return err
	}
	g.calls = append(g.calls, "delete:"+externalID)
	return nil
}

func (g *fakeGallery) SetCover(_ context.Context, externalID string) error {
	if g.coverErr != nil {
		return g.coverErr
	}
	g.calls = append(g.calls, "cover:"+externalID)
	return nil
}

func (g *fakeGallery) UpdatePositions(_ context.Context, updates map[string]int) error {
	g.calls = append(g.calls, fmt.Sprintf("positions:%d", len(updates)))
	g.positions = updates
	return nil
}

func objectReader(data string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(data)))
}

func TestSyncer_EmptyDiffSkipsRemote(t *testing.T) {
	store := &mocks.Client{}
	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()

	report, err := syncer.Apply(context.Background(), Diff{}, gallery)
	require.NoError(t, err)

	assert.Empty(t, gallery.calls)
	assert.Empty(t, report.Uploaded)
	store.AssertNotCalled(t, "GetObject")
}

func TestSyncer_StepOrdering(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "media", "p/1.jpg", minio.GetObjectOptions{}).
		Return(objectReader("jpeg-bytes"), nil)

	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()

	diff := Diff{
		ToUpload:           []Item{{ID: 1, ObjectKey: "p/1.jpg", FileName: "1.jpg"}},
		ToDelete:           []RemoteImage{{ExternalID: "stale-9"}},
		CoverChanged:       true,
		NewCoverExternalID: "ext-kept",
		OrderChanged:       true,
		PositionUpdates:    map[string]int{"ext-kept": 1},
	}

	report, err := syncer.Apply(context.Background(), diff, gallery)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete:stale-9", "upload:p/1.jpg", "cover:ext-kept", "positions:1"}, gallery.calls)
	assert.Equal(t, []byte("jpeg-bytes"), gallery.uploaded[1])
	assert.Equal(t, map[int64]string{1: "ext-1"}, report.Uploaded)
	assert.Equal(t, "ext-kept", report.CoverSet)
	assert.Equal(t, 1, report.PositionsUpdated)
	assert.Empty(t, report.Errors)
	store.AssertExpectations(t)
}

// A cover that was part of the upload set gets its pointer set from the
// freshly returned remote ID.
func TestSyncer_CoverSetAfterUpload(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "media", "p/1.jpg", minio.GetObjectOptions{}).
		Return(objectReader("a"), nil)
	store.On("GetObject", mock.Anything, "media", "p/2.jpg", minio.GetObjectOptions{}).
		Return(objectReader("b"), nil)

	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()

	diff := Diff{
		ToUpload: []Item{
			{ID: 1, ObjectKey: "p/1.jpg", IsCover: true},
			{ID: 2, ObjectKey: "p/2.jpg"},
		},
		CoverChanged: true,
	}

	report, err := syncer.Apply(context.Background(), diff, gallery)
	require.NoError(t, err)

	assert.Equal(t, []string{"upload:p/1.jpg", "upload:p/2.jpg", "cover:ext-1"}, gallery.calls)
	assert.Equal(t, "ext-1", report.CoverSet)
}

func TestSyncer_CoverSkippedWhenItsUploadFailed(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "media", "p/1.jpg", minio.GetObjectOptions{}).
		Return(objectReader("a"), nil)
	store.On("GetObject", mock.Anything, "media", "p/2.jpg", minio.GetObjectOptions{}).
		Return(objectReader("b"), nil)

	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()
	gallery.failUpload["p/1.jpg"] = fmt.Errorf("payload rejected")

	diff := Diff{
		ToUpload: []Item{
			{ID: 1, ObjectKey: "p/1.jpg", IsCover: true},
			{ID: 2, ObjectKey: "p/2.jpg"},
		},
		CoverChanged: true,
	}

	report, err := syncer.Apply(context.Background(), diff, gallery)
	require.NoError(t, err)

	// The healthy image still uploads; the cover pointer stays untouched.
	assert.Equal(t, []string{"upload:p/2.jpg"}, gallery.calls)
	assert.Empty(t, report.CoverSet)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "upload", report.Errors[0].Step)
	assert.Equal(t, "p/1.jpg", report.Errors[0].Detail)
}

func TestSyncer_PartialFailuresDoNotAbort(t *testing.T) {
	store := &mocks.Client{}
	store.On("GetObject", mock.Anything, "media", "p/3.jpg", minio.GetObjectOptions{}).
		Return(nil, fmt.Errorf("object not found"))
	store.On("GetObject", mock.Anything, "media", "p/4.jpg", minio.GetObjectOptions{}).
		Return(objectReader("ok"), nil)

	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()
	gallery.failDelete["dead-1"] = fmt.Errorf("remote 500")

	diff := Diff{
		ToUpload: []Item{
			{ID: 3, ObjectKey: "p/3.jpg"},
			{ID: 4, ObjectKey: "p/4.jpg"},
		},
		ToDelete: []RemoteImage{{ExternalID: "dead-1"}, {ExternalID: "dead-2"}},
	}

	report, err := syncer.Apply(context.Background(), diff, gallery)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete:dead-2", "upload:p/4.jpg"}, gallery.calls)
	assert.Equal(t, map[int64]string{4: "ext-1"}, report.Uploaded)
	assert.Equal(t, []string{"dead-2"}, report.Deleted)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "delete", report.Errors[0].Step)
	assert.Equal(t, "upload", report.Errors[1].Step)
	assert.ErrorContains(t, report.Errors[1], "object not found")
}

func TestSyncer_CancelledContextStopsEarly(t *testing.T) {
	store := &mocks.Client{}
	syncer := NewSyncer(store, "media", zap.NewNop())
	gallery := newFakeGallery()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	diff := Diff{ToUpload: []Item{{ID: 1, ObjectKey: "p/1.jpg"}}}
	_, err := syncer.Apply(ctx, diff, gallery)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gallery.calls)
}
