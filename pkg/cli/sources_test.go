package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/burrow/pkg/model"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadSourcesDefaults(t *testing.T) {
	cfg := &config{
		pdfPath: "manual.pdf",
		pageURL: "https://example.com/doc",
	}

	sources, err := cfg.loadSources()
	gt.NoError(t, err)
	gt.Array(t, sources).Length(2)
	gt.Value(t, sources[0].ID).Equal(defaultPDFID)
	gt.Value(t, sources[0].Kind).Equal(model.OriginFile)
	gt.Value(t, sources[0].Origin).Equal("manual.pdf")
	gt.Value(t, sources[1].ID).Equal(defaultPageID)
	gt.Value(t, sources[1].Kind).Equal(model.OriginURL)
}

func TestLoadSourcesManifest(t *testing.T) {
	path := writeManifest(t, `
- id: handbook
  path: ./handbook.pdf
- id: wiki
  url: https://example.com/wiki
- path: ./extra.pdf
`)
	cfg := &config{sourcesPath: path}

	sources, err := cfg.loadSources()
	gt.NoError(t, err)
	gt.Array(t, sources).Length(3)
	gt.Value(t, sources[0].ID).Equal(model.DocumentID("handbook"))
	gt.Value(t, sources[0].Kind).Equal(model.OriginFile)
	gt.Value(t, sources[1].Kind).Equal(model.OriginURL)
	// missing id gets a generated one
	gt.Value(t, string(sources[2].ID)).NotEqual("")
}

func TestLoadSourcesManifestRejectsAmbiguousEntry(t *testing.T) {
	for _, body := range []string{
		"- id: both\n  path: ./a.pdf\n  url: https://example.com\n",
		"- id: neither\n",
	} {
		cfg := &config{sourcesPath: writeManifest(t, body)}
		_, err := cfg.loadSources()
		gt.Error(t, err)
		gt.True(t, errors.Is(err, errBadConfig))
	}
}

func TestLoadSourcesRejectsDuplicateIDs(t *testing.T) {
	path := writeManifest(t, `
- id: same
  path: ./a.pdf
- id: same
  url: https://example.com
`)
	cfg := &config{sourcesPath: path}

	_, err := cfg.loadSources()
	gt.Error(t, err)
	gt.True(t, errors.Is(err, errBadConfig))
}

func TestLoadSourcesMissingManifest(t *testing.T) {
	cfg := &config{sourcesPath: filepath.Join(t.TempDir(), "nope.yml")}
	_, err := cfg.loadSources()
	gt.Error(t, err)
	gt.True(t, errors.Is(err, errBadConfig))
}
