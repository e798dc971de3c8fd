package cvdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFeatureMap(t *testing.T) {
	dir := t.TempDir()
	writeTestDataset(t, dir, 1, 32, 24)

	d, err := LoadYOLO(dir)
	require.NoError(t, err)
	require.Len(t, d.Files, 1)

	f, err := toFeatureMap(d.Files[0], d.ClassNames)
	require.NoError(t, err)

	assert.Equal(t, 32, f["image/width"])
	assert.Equal(t, 24, f["image/height"])
	assert.Equal(t, "jpeg", f["image/format"])
	assert.Equal(t, d.Files[0].ImagePath, f["image/filename"])

	imgData, err := os.ReadFile(d.Files[0].ImagePath)
	require.NoError(t, err)
	assert.Equal(t, imgData, f["image/encoded"])

	assert.InDelta(t, 0.25, float64(f["image/object/bbox/xmin"].([]float32)[0]), 1e-6)
	assert.InDelta(t, 0.25, float64(f["image/object/bbox/ymin"].([]float32)[0]), 1e-6)
	assert.InDelta(t, 0.75, float64(f["image/object/bbox/xmax"].([]float32)[0]), 1e-6)
	assert.InDelta(t, 0.75, float64(f["image/object/bbox/ymax"].([]float32)[0]), 1e-6)
	assert.Equal(t, []string{"widget"}, f["image/object/class/text"])
	// IDs start at 1 to match the label map.
	assert.Equal(t, []int64{int64(indexOf(testClassNames, "widget")) + 1},
		f["image/object/class/label"])
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func TestToFeatureMapUnknownLabel(t *testing.T) {
	dir := t.TempDir()
	writeTestDataset(t, dir, 1, 32, 24)

	d, err := LoadYOLO(dir)
	require.NoError(t, err)

	_, err = toFeatureMap(d.Files[0], []string{"other"})
	assert.Error(t, err)
}

func TestWriteTFRecordSharded(t *testing.T) {
	dir := t.TempDir()
	writeTestDataset(t, dir, 4, 32, 24)

	d, err := LoadYOLO(dir)
	require.NoError(t, err)

	outDir := t.TempDir()
	recordPath := filepath.Join(outDir, "train.record")
	labelMapPath := filepath.Join(outDir, "label_map.pbtxt")
	require.NoError(t, WriteTFRecord(recordPath, labelMapPath, d, 2))

	for _, suffix := range []string{"-00000-of-00002", "-00001-of-00002"} {
		info, err := os.Stat(recordPath + suffix)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
	assert.NoFileExists(t, recordPath)
}

func TestWriteTFRecordSingleShard(t *testing.T) {
	dir := t.TempDir()
	writeTestDataset(t, dir, 2, 32, 24)

	d, err := LoadYOLO(dir)
	require.NoError(t, err)

	outDir := t.TempDir()
	recordPath := filepath.Join(outDir, "eval.record")
	labelMapPath := filepath.Join(outDir, "label_map.pbtxt")
	require.NoError(t, WriteTFRecord(recordPath, labelMapPath, d, 1))

	info, err := os.Stat(recordPath)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	data, err := os.ReadFile(labelMapPath)
	require.NoError(t, err)
	want := "item {\n  id: 1\n  name: \"widget\"\n}\nitem {\n  id: 2\n  name: \"gadget\"\n}\n"
	assert.Equal(t, want, string(data))
}
