package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/quire/layout"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	opts, err := cfg.SheetOptions()
	require.NoError(t, err)
	assert.InDelta(t, 297, opts.PageWidth, 1e-9)
	assert.InDelta(t, 210, opts.PageHeight, 1e-9)
	assert.InDelta(t, 12.7, opts.Margin.Left, 1e-6)
	assert.InDelta(t, 9*layout.PtToMm, opts.FontSize, 1e-6)
	assert.Equal(t, "embed:bold", opts.HeaderFont.Src)
	assert.IsType(t, layout.RandomSampler{}, opts.Sampler)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	body := "page: a3\nlandscape: false\nmargin: 10mm 20mm\nsampling: first\nmax_column: 0\nworkers: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "9pt", cfg.FontSize)

	opts, err := cfg.SheetOptions()
	require.NoError(t, err)
	assert.InDelta(t, 297, opts.PageWidth, 1e-9)
	assert.InDelta(t, 420, opts.PageHeight, 1e-9)
	assert.InDelta(t, 20, opts.Margin.Right, 1e-9)
	assert.Zero(t, opts.MaxColumn)
	assert.IsType(t, layout.FirstNSampler{}, opts.Sampler)
}

func TestLoadReportsAllProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	body := "page: B7\nfont_size: big\nline_height: 0.5\nsampling: sometimes\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	for _, part := range []string{"B7", "font_size", "line_height", "sampling"} {
		assert.Contains(t, err.Error(), part)
	}
}

func TestExplicitPageSize(t *testing.T) {
	cfg := Default()
	cfg.Width, cfg.Height = "100mm", "4in"
	size, err := cfg.PageSize()
	require.NoError(t, err)
	assert.InDelta(t, 101.6, size.Width, 1e-6)
	assert.InDelta(t, 100, size.Height, 1e-6)

	cfg.Height = ""
	_, err = cfg.PageSize()
	assert.Error(t, err)
}

func TestMinLargerThanMax(t *testing.T) {
	cfg := Default()
	cfg.MinColumn, cfg.MaxColumn = "50mm", "2cm"
	assert.ErrorContains(t, cfg.Validate(), "min_column")
}

func TestSet(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("landscape", "false"))
	require.NoError(t, cfg.Set("sample_size", "25"))
	require.NoError(t, cfg.Set("margin", "5mm"))
	assert.False(t, cfg.Landscape)
	assert.Equal(t, 25, cfg.SampleSize)
	assert.Equal(t, "5mm", cfg.Margin)

	assert.ErrorContains(t, cfg.Set("colour", "red"), "colour")
	assert.Error(t, cfg.Set("workers", "many"))
}

func TestSetKeepsValueVerbatim(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Set("font", "fonts/Noto #2.ttf"))
	assert.Equal(t, "fonts/Noto #2.ttf", cfg.Font)

	require.NoError(t, cfg.Set("header_font", "C: bold.ttf"))
	assert.Equal(t, "C: bold.ttf", cfg.HeaderFont)

	require.NoError(t, cfg.Set("sampling", "first # later"))
	assert.Equal(t, "first # later", cfg.Sampling)
	assert.Error(t, cfg.Validate())
}
