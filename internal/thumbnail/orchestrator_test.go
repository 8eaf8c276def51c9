package thumbnail

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/anoixa/image-thumbnailer/internal/event"
	"github.com/anoixa/image-thumbnailer/internal/transform"
	"github.com/anoixa/image-thumbnailer/metadata"
	"github.com/anoixa/image-thumbnailer/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resizeCall struct {
	dst  string
	opts transform.Options
}

type fakeTransformer struct {
	mu        sync.Mutex
	width     int
	height    int
	probeErr  error
	failLabel string
	probed    int
	calls     []resizeCall
}

func (f *fakeTransformer) Name() string { return "fake" }

func (f *fakeTransformer) Probe(_ context.Context, path string) (int, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed++
	if f.probeErr != nil {
		return 0, 0, f.probeErr
	}
	if _, err := os.Stat(path); err != nil {
		return 0, 0, err
	}
	return f.width, f.height, nil
}

func (f *fakeTransformer) Resize(_ context.Context, src, dst string, opts transform.Options) error {
	f.mu.Lock()
	f.calls = append(f.calls, resizeCall{dst: dst, opts: opts})
	f.mu.Unlock()

	if f.failLabel != "" && strings.Contains(dst, f.failLabel) {
		return errors.New("boom")
	}
	if _, err := os.Stat(src); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("jpeg"), 0o644)
}

type fakeObjects struct {
	mu        sync.Mutex
	downloads []string
	uploads   []string
}

func (f *fakeObjects) Download(_ context.Context, bucket, name, dst string) error {
	f.mu.Lock()
	f.downloads = append(f.downloads, bucket+"/"+name)
	f.mu.Unlock()
	return os.WriteFile(dst, []byte("source"), 0o644)
}

func (f *fakeObjects) Upload(_ context.Context, bucket, src, dest string) (*storage.Object, error) {
	if _, err := os.Stat(src); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, dest)
	f.mu.Unlock()
	return &storage.Object{Bucket: bucket, Name: dest}, nil
}

type fakeRecords struct {
	mu      sync.Mutex
	records map[string]metadata.Record
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: make(map[string]metadata.Record)}
}

func (f *fakeRecords) Set(_ context.Context, key string, record metadata.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key] = record
	return nil
}

func newTestOrchestrator(t *testing.T, tr *fakeTransformer) (*Orchestrator, *fakeObjects, *fakeRecords, string) {
	t.Helper()
	root := t.TempDir()
	objects := &fakeObjects{}
	records := newFakeRecords()
	o := New(objects, tr, records, Options{ScratchRoot: root})
	return o, objects, records, root
}

func sampleEvent() *event.ObjectEvent {
	return &event.ObjectEvent{
		Bucket:        "demo.appspot.com",
		Name:          "temp_upload/session1/IMG_20.jpg",
		ContentType:   "image/jpeg",
		ResourceState: event.ResourceStateExists,
		Metadata:      map[string]string{event.DownloadTokenKey: "tok-123"},
	}
}

func TestHandle_EndToEndLandscape(t *testing.T) {
	tr := &fakeTransformer{width: 1200, height: 800}
	o, objects, records, root := newTestOrchestrator(t, tr)

	require.NoError(t, o.Handle(context.Background(), sampleEvent()))

	assert.Equal(t, []string{"demo.appspot.com/temp_upload/session1/IMG_20.jpg"}, objects.downloads)
	assert.Equal(t, 1, tr.probed)
	assert.ElementsMatch(t, []string{
		"images/xl_IMG_20.jpg", "images/l_IMG_20.jpg", "images/m_IMG_20.jpg",
		"images/s_IMG_20.jpg", "images/bl_IMG_20.jpg",
	}, objects.uploads)

	expected := map[string]string{
		"small":  "s_IMG_20.jpg",
		"medium": "m_IMG_20.jpg",
		"large":  "l_IMG_20.jpg",
		"xlarge": "xl_IMG_20.jpg",
		"blur":   "bl_IMG_20.jpg",
	}
	require.Len(t, records.records, 5)
	for label, file := range expected {
		rec, ok := records.records["images/IMG_20/"+label]
		require.True(t, ok, label)
		assert.Equal(t,
			"https://firebasestorage.googleapis.com/v0/b/demo.appspot.com/o/images%2F"+file+"?alt=media&token=tok-123",
			rec.URL)
	}

	for _, c := range tr.calls {
		assert.NotZero(t, c.opts.Width)
		assert.Zero(t, c.opts.Height)
		if strings.HasSuffix(c.dst, "bl_IMG_20.jpg") {
			assert.Equal(t, 300, c.opts.Width)
			assert.Equal(t, float64(BlurSigma), c.opts.BlurSigma)
		} else {
			assert.Zero(t, c.opts.BlurSigma)
		}
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch dir should be removed")
}

func TestHandle_PortraitAndSquareUseHeight(t *testing.T) {
	for _, dims := range [][2]int{{800, 1200}, {1000, 1000}} {
		tr := &fakeTransformer{width: dims[0], height: dims[1]}
		o, _, _, _ := newTestOrchestrator(t, tr)

		report, err := o.Process(context.Background(), sampleEvent())
		require.NoError(t, err)
		assert.False(t, report.Landscape)

		require.Len(t, tr.calls, 5)
		for _, c := range tr.calls {
			assert.Zero(t, c.opts.Width)
			assert.NotZero(t, c.opts.Height)
		}
	}
}

func TestHandle_SkipsWithoutIO(t *testing.T) {
	events := []*event.ObjectEvent{
		{Bucket: "b", Name: "temp_upload/a/doc.pdf", ContentType: "application/pdf"},
		{Bucket: "b", Name: "images/a.jpg", ContentType: "image/jpeg"},
		{Bucket: "b", Name: "temp_upload.jpg", ContentType: "image/jpeg"},
		{Bucket: "b", Name: "temp_upload/a.jpg", ContentType: "image/jpeg", ResourceState: event.ResourceStateNotExists},
	}

	for _, ev := range events {
		tr := &fakeTransformer{width: 10, height: 10}
		o, objects, records, root := newTestOrchestrator(t, tr)

		report, err := o.Process(context.Background(), ev)
		require.NoError(t, err)
		assert.NotEqual(t, event.SkipNone, report.Skipped)

		assert.Empty(t, objects.downloads)
		assert.Empty(t, objects.uploads)
		assert.Zero(t, tr.probed)
		assert.Empty(t, tr.calls)
		assert.Empty(t, records.records)

		entries, _ := os.ReadDir(root)
		assert.Empty(t, entries)
	}
}

func TestHandle_BranchFailureFailsInvocation(t *testing.T) {
	tr := &fakeTransformer{width: 1200, height: 800, failLabel: "m_IMG_20"}
	o, _, records, root := newTestOrchestrator(t, tr)

	report, err := o.Process(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "medium")
	assert.Equal(t, []string{"medium"}, report.Failed())

	// 其余分支仍然完成
	assert.Len(t, records.records, 4)
	_, ok := records.records["images/IMG_20/medium"]
	assert.False(t, ok)

	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries)
}

func TestHandle_ProbeFailure(t *testing.T) {
	tr := &fakeTransformer{probeErr: errors.New("not an image")}
	o, objects, records, root := newTestOrchestrator(t, tr)

	err := o.Handle(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Len(t, objects.downloads, 1)
	assert.Empty(t, objects.uploads)
	assert.Empty(t, records.records)

	entries, _ := os.ReadDir(root)
	assert.Empty(t, entries)
}

func TestHandle_RerunOverwrites(t *testing.T) {
	tr := &fakeTransformer{width: 1200, height: 800}
	o, _, records, _ := newTestOrchestrator(t, tr)

	require.NoError(t, o.Handle(context.Background(), sampleEvent()))
	first := make(map[string]metadata.Record, len(records.records))
	for k, v := range records.records {
		first[k] = v
	}

	require.NoError(t, o.Handle(context.Background(), sampleEvent()))
	assert.Equal(t, first, records.records)
}
