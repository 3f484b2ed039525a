package generation

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/report"
)

// ArtifactStore persists a rendered report and returns where it can be fetched
type ArtifactStore interface {
	Store(ctx context.Context, reportID uuid.UUID, content []byte) (string, error)
}

// FileArtifactStore writes artifacts to a local directory served under baseURL
type FileArtifactStore struct {
	dir     string
	baseURL string
}

var _ ArtifactStore = (*FileArtifactStore)(nil)

func NewFileArtifactStore(cfg *config.GenerationConfig) *FileArtifactStore {
	return &FileArtifactStore{
		dir:     cfg.ArtifactDir,
		baseURL: strings.TrimRight(cfg.ArtifactBaseURL, "/"),
	}
}

func artifactName(reportID uuid.UUID) string {
	return "report-" + reportID.String() + ".html"
}

// Open returns the stored artifact and its size. A missing artifact yields an
// error matching fs.ErrNotExist.
func (s *FileArtifactStore) Open(ctx context.Context, reportID uuid.UUID) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	f, err := os.Open(filepath.Join(s.dir, artifactName(reportID)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open artifact for report %s: %w", reportID, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat artifact for report %s: %w", reportID, err)
	}
	return f, info.Size(), nil
}

func (s *FileArtifactStore) Store(ctx context.Context, reportID uuid.UUID, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	name := artifactName(reportID)
	tmp := filepath.Join(s.dir, name+".tmp")
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	return s.baseURL + "/" + name, nil
}

var artifactTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Property analysis: {{.Params.PropertyAddress}}</title>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 800px; margin: 0 auto; padding: 24px; }
header { border-bottom: 3px solid #667eea; margin-bottom: 24px; }
table { border-collapse: collapse; margin-bottom: 24px; }
td { padding: 4px 12px 4px 0; }
.analysis { white-space: pre-wrap; }
</style>
</head>
<body>
<header>
<h1>{{.Params.PropertyAddress}}</h1>
<p>{{.Params.ReportType}} analysis generated {{.GeneratedAt.Format "2 January 2006"}}</p>
</header>
<table>
<tr><td>Postcode</td><td>{{.Params.PropertyPostcode}}</td></tr>
<tr><td>Purchase price</td><td>£{{printf "%.0f" .Params.PurchasePrice}}</td></tr>
<tr><td>Property type</td><td>{{.Params.PropertyType}}</td></tr>
<tr><td>Condition</td><td>{{.Params.CurrentCondition}}</td></tr>
</table>
<section class="analysis">{{.Content}}</section>
<footer><p>Report {{.ReportID}} · model {{.Model}}</p></footer>
</body>
</html>
`))

type artifactData struct {
	ReportID    uuid.UUID
	Params      *report.InputParameters
	Content     string
	Model       string
	GeneratedAt time.Time
}

func renderArtifact(data artifactData) ([]byte, error) {
	var buf bytes.Buffer
	if err := artifactTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render artifact: %w", err)
	}
	return buf.Bytes(), nil
}
