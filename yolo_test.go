package cvdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClassNames = []string{"widget", "gadget"}

func TestParseLabelLine(t *testing.T) {
	r, err := parseLabelLine("1 0.5 0.5 0.2 0.4", testClassNames)
	require.NoError(t, err)

	assert.Equal(t, "gadget", r.Label)
	assert.InDelta(t, 0.4, r.Left, coordEpsilon)
	assert.InDelta(t, 0.3, r.Top, coordEpsilon)
	assert.InDelta(t, 0.2, r.Width, coordEpsilon)
	assert.InDelta(t, 0.4, r.Height, coordEpsilon)
}

func TestParseLabelLineErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"0 0.5 0.5 0.2",         // Too few tokens.
		"0 0.5 0.5 0.2 0.4 0.1", // Too many tokens.
		"2 0.5 0.5 0.2 0.4",     // Class index out of range.
		"-1 0.5 0.5 0.2 0.4",
		"x 0.5 0.5 0.2 0.4",
		"0 0.5 abc 0.2 0.4",
	} {
		_, err := parseLabelLine(line, testClassNames)
		assert.Error(t, err, "line %q", line)
	}
}

func TestLabelLineRoundTrip(t *testing.T) {
	orig := Region{Label: "widget", Left: 0.125, Top: 0.25, Width: 0.5, Height: 0.375}

	line, err := formatLabelLine(orig, testClassNames)
	require.NoError(t, err)
	assert.Equal(t, "0 0.375 0.4375 0.5 0.375", line)

	got, err := parseLabelLine(line, testClassNames)
	require.NoError(t, err)
	assert.InDelta(t, orig.Left, got.Left, coordEpsilon)
	assert.InDelta(t, orig.Top, got.Top, coordEpsilon)
	assert.InDelta(t, orig.Width, got.Width, coordEpsilon)
	assert.InDelta(t, orig.Height, got.Height, coordEpsilon)
}

func TestFormatLabelLineUnknownLabel(t *testing.T) {
	_, err := formatLabelLine(Region{Label: "sprocket"}, testClassNames)
	assert.Error(t, err)
}

func TestLabelFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0.txt")

	regions := []Region{
		{Label: "widget", Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4},
		{Label: "gadget", Left: 0.5, Top: 0.25, Width: 0.25, Height: 0.5},
	}
	require.NoError(t, WriteLabelFile(path, regions, testClassNames))

	got, err := ParseLabelFile(path, testClassNames)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range regions {
		assert.Equal(t, regions[i].Label, got[i].Label)
		assert.InDelta(t, regions[i].Left, got[i].Left, coordEpsilon)
		assert.InDelta(t, regions[i].Top, got[i].Top, coordEpsilon)
		assert.InDelta(t, regions[i].Width, got[i].Width, coordEpsilon)
		assert.InDelta(t, regions[i].Height, got[i].Height, coordEpsilon)
	}
}

func TestReadClassNamesSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ClassNamesFile)
	require.NoError(t, os.WriteFile(path, []byte("widget\n\ngadget\n"), 0644))

	names, err := ReadClassNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"widget", "gadget"}, names)
}

func TestClassNamesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ClassNamesFile)

	require.NoError(t, WriteClassNames(path, testClassNames))
	names, err := ReadClassNames(path)
	require.NoError(t, err)
	assert.Equal(t, testClassNames, names)
}

func TestReadClassNamesEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ClassNamesFile)
	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0644))

	_, err := ReadClassNames(path)
	assert.Error(t, err)
}
