package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates/*.json.tmpl
var templates embed.FS

// Params fills the dashboard templates.
type Params struct {
	DatasourceUID string
	NodeTable     string
	SummaryTable  string
	MessageTable  string
	Refresh       string
}

// ErrNoDatasource is returned when no Grafana datasource UID is given.
var ErrNoDatasource = errors.New("dashboard: GreptimeDB datasource UID required")

// Render executes every embedded dashboard template and writes the results,
// minus the .tmpl suffix, to outDir. It returns the written paths.
func Render(outDir string, p Params) ([]string, error) {
	if p.DatasourceUID == "" {
		return nil, ErrNoDatasource
	}
	if p.Refresh == "" {
		p.Refresh = "30s"
	}
	tpl, err := template.ParseFS(templates, "templates/*.json.tmpl")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	for _, t := range tpl.Templates() {
		var buf bytes.Buffer
		if err := t.Execute(&buf, p); err != nil {
			return nil, err
		}
		if !json.Valid(buf.Bytes()) {
			return nil, fmt.Errorf("dashboard %s: rendered output is not valid JSON", t.Name())
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(t.Name(), ".tmpl"))
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return nil, err
		}
		written = append(written, outPath)
	}
	return written, nil
}
