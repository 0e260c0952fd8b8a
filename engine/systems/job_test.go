package systems

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lumen/engine/renderer/rendertest"
)

func TestJobSystemRejectsBadSizes(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRunsEveryJob(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	for i := 0; i < 20; i++ {
		fail := i%5 == 0
		js.Submit(JobTask{
			Name: "job",
			Run: func() error {
				if fail {
					return errors.New("boom")
				}
				return nil
			},
			OnComplete: func() { completed.Add(1) },
			OnFailure:  func(error) { failed.Add(1) },
		})
	}
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
	assert.EqualValues(t, 16, completed.Load())
	assert.EqualValues(t, 4, failed.Load())
}

const testTriangleOBJ = `o tri
v 0 0 0
v 1 0 0
v 0 1 0
vn 0 0 -1
f 1//1 2//1 3//1
`

func writeModel(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(testTriangleOBJ), 0o644))
}

func TestModelSystemPreloadUploadsOncePerPath(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.obj")
	writeModel(t, dir, "b.obj")

	device := rendertest.NewDevice()
	ms := NewModelSystem(device, dir)
	require.NoError(t, ms.Preload([]string{"a.obj", "b.obj", "a.obj"}, 4))
	assert.Equal(t, 2, ms.Len())
	require.Len(t, device.Geometries, 2)

	// preloaded models are served from the cache
	m, err := ms.Acquire("b.obj")
	require.NoError(t, err)
	assert.EqualValues(t, 2, m.RefCount())
	assert.Len(t, device.Geometries, 2)

	require.NoError(t, ms.Preload([]string{"a.obj"}, 1))
	assert.Len(t, device.Geometries, 2)

	require.NoError(t, ms.Shutdown())
	m.Release()
}

func TestModelSystemPreloadReportsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "a.obj")

	device := rendertest.NewDevice()
	ms := NewModelSystem(device, dir)
	err := ms.Preload([]string{"a.obj", "missing.obj"}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.obj")
	assert.Empty(t, device.Geometries, "nothing is uploaded when parsing fails")
}
