package cli

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/m-mizutani/burrow/pkg/model"
	"github.com/m-mizutani/burrow/pkg/usecase/ingest"
)

// Default identifiers for the built-in sample sources
const (
	defaultPDFID  = model.DocumentID("sample-pdf")
	defaultPageID = model.DocumentID("sample-web")
)

// sourceEntry is one item of the YAML source manifest
type sourceEntry struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// loadSources resolves the sources to ingest: the YAML manifest when given,
// otherwise the built-in PDF + web page pair. Identifiers must be unique.
func (cfg *config) loadSources() ([]ingest.Source, error) {
	var sources []ingest.Source

	if cfg.sourcesPath != "" {
		manifest, err := loadManifest(cfg.sourcesPath)
		if err != nil {
			return nil, err
		}
		sources = manifest
	} else {
		sources = []ingest.Source{
			{ID: defaultPDFID, Kind: model.OriginFile, Origin: cfg.pdfPath},
			{ID: defaultPageID, Kind: model.OriginURL, Origin: cfg.pageURL},
		}
	}

	seen := make(map[model.DocumentID]bool)
	for _, src := range sources {
		if seen[src.ID] {
			return nil, goerr.Wrap(errBadConfig, "duplicate source identifier",
				goerr.V("doc_id", src.ID))
		}
		seen[src.ID] = true
	}

	return sources, nil
}

func loadManifest(path string) ([]ingest.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(errBadConfig, "failed to read sources manifest",
			goerr.V("path", path))
	}

	var entries []sourceEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(errBadConfig, "failed to parse sources manifest",
			goerr.V("path", path))
	}
	if len(entries) == 0 {
		return nil, goerr.Wrap(errBadConfig, "sources manifest is empty",
			goerr.V("path", path))
	}

	sources := make([]ingest.Source, 0, len(entries))
	for i, entry := range entries {
		if (entry.Path == "") == (entry.URL == "") {
			return nil, goerr.Wrap(errBadConfig, "source needs exactly one of path or url",
				goerr.V("path", path), goerr.V("index", i))
		}

		id := model.DocumentID(entry.ID)
		if id == "" {
			id = model.NewDocumentID()
		}

		src := ingest.Source{ID: id, Kind: model.OriginFile, Origin: entry.Path}
		if entry.URL != "" {
			src.Kind = model.OriginURL
			src.Origin = entry.URL
		}
		sources = append(sources, src)
	}

	return sources, nil
}
