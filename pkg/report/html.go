package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
)

// ArchivePrefix names the timestamped copy written when a run ends.
const ArchivePrefix = "AutomationTestReport"

// HTMLConfig controls HTML rendering.
type HTMLConfig struct {
	OutputPath  string // default <dir>/report.html
	EmbedAssets bool   // inline screenshots as data URIs
	Title       string // document title
	ReportName  string // heading
	Archive     bool   // also write AutomationTestReport_<yyyyMMdd_HHmmss>.html
}

// GenerateHTML renders the report in dir. It returns the archive path when
// one was written, otherwise the main output path.
func GenerateHTML(dir string, cfg HTMLConfig) (string, error) {
	index, details, err := ReadReport(dir)
	if err != nil {
		return "", fmt.Errorf("read report: %w", err)
	}
	if cfg.Title == "" {
		cfg.Title = "Mobile Automation Test Report"
	}
	if cfg.ReportName == "" {
		cfg.ReportName = "Bug Tracker Automation Results"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(dir, "report.html")
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, buildHTMLData(dir, index, details, cfg)); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	if err := renameio.WriteFile(cfg.OutputPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write html: %w", err)
	}
	if !cfg.Archive {
		return cfg.OutputPath, nil
	}

	archive := filepath.Join(filepath.Dir(cfg.OutputPath), ArchiveName(time.Now()))
	if err := renameio.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write html archive: %w", err)
	}
	return archive, nil
}

// ArchiveName returns the archived report file name for t.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("%s_%s.html", ArchivePrefix, t.Format("20060102_150405"))
}

type htmlData struct {
	Title       string
	ReportName  string
	GeneratedAt string
	Index       *Index
	Duration    string
	PassRate    string
	Scenarios   []scenarioHTML
}

type scenarioHTML struct {
	Entry    ScenarioEntry
	Duration string
	Entries  []entryHTML
}

type entryHTML struct {
	LogEntry
	Image string
}

func buildHTMLData(dir string, index *Index, details []ScenarioDetail, cfg HTMLConfig) htmlData {
	data := htmlData{
		Title:       cfg.Title,
		ReportName:  cfg.ReportName,
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Index:       index,
		Duration:    "-",
		PassRate:    "0%",
	}
	if index.EndTime != nil {
		ms := index.EndTime.Sub(index.StartTime).Milliseconds()
		data.Duration = formatDuration(&ms)
	}
	if index.Summary.Total > 0 {
		data.PassRate = fmt.Sprintf("%.0f%%", float64(index.Summary.Passed)/float64(index.Summary.Total)*100)
	}

	for i, d := range details {
		s := scenarioHTML{Entry: index.Scenarios[i], Duration: formatDuration(index.Scenarios[i].Duration)}
		for _, e := range d.Entries {
			eh := entryHTML{LogEntry: e}
			if e.Screenshot != "" {
				eh.Image = e.Screenshot
				if cfg.EmbedAssets {
					eh.Image = loadAsBase64(filepath.Join(dir, filepath.FromSlash(e.Screenshot)))
				}
			}
			s.Entries = append(s.Entries, eh)
		}
		data.Scenarios = append(data.Scenarios, s)
	}
	return data
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	mime := "image/png"
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".jpg" || ext == ".jpeg" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data))
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"safeURL": func(s string) template.URL { return template.URL(s) },
}).Parse(htmlTemplate))

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
:root {
    --bg-primary: #ffffff;
    --bg-secondary: #f9fafb;
    --text-primary: #000000;
    --text-muted: rgb(107, 114, 128);
    --border-color: #e5e7eb;
    --passed: #22c55e;
    --failed: #ef4444;
    --skipped: #eab308;
    --running: #06b6d4;
    --pending: #6b7280;
}
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: var(--bg-primary); color: var(--text-primary); line-height: 1.5; }
.header { background: var(--bg-secondary); border-bottom: 1px solid var(--border-color); padding: 16px 24px; }
.header h1 { font-size: 18px; }
.meta { color: var(--text-muted); font-size: 12px; }
.stats { display: flex; gap: 24px; margin-top: 12px; }
.stat b { display: block; font-size: 20px; }
main { padding: 16px 24px; }
details { border: 1px solid var(--border-color); border-radius: 6px; margin-bottom: 8px; }
summary { padding: 8px 12px; cursor: pointer; display: flex; gap: 12px; }
.badge { font-size: 11px; font-weight: 600; text-transform: uppercase; padding: 2px 8px; border-radius: 4px; color: #fff; }
.passed { background: var(--passed); } .failed { background: var(--failed); }
.skipped { background: var(--skipped); } .running { background: var(--running); } .pending { background: var(--pending); }
.info { background: var(--running); } .pass { background: var(--passed); } .fail { background: var(--failed); }
.skip, .warning { background: var(--skipped); }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
td { border-top: 1px solid var(--border-color); padding: 4px 12px; vertical-align: top; }
pre { white-space: pre-wrap; font-size: 12px; color: var(--failed); }
img { max-width: 240px; border: 1px solid var(--border-color); }
</style>
</head>
<body>
<div class="header">
<h1>{{.ReportName}}</h1>
<div class="meta">Run {{.Index.RunID}} &middot; {{.Index.App.Package}} &middot; {{.Index.Runner.Driver}} &middot; generated {{.GeneratedAt}}</div>
<div class="stats">
<div class="stat"><b>{{.Index.Summary.Total}}</b>total</div>
<div class="stat"><b>{{.Index.Summary.Passed}}</b>passed</div>
<div class="stat"><b>{{.Index.Summary.Failed}}</b>failed</div>
<div class="stat"><b>{{.Index.Summary.Skipped}}</b>skipped</div>
<div class="stat"><b>{{.PassRate}}</b>pass rate</div>
<div class="stat"><b>{{.Duration}}</b>duration</div>
</div>
</div>
<main>
{{range .Scenarios}}
<details{{if eq .Entry.Status "failed"}} open{{end}}>
<summary><span class="badge {{.Entry.Status}}">{{.Entry.Status}}</span><span>{{.Entry.Name}}</span><span class="meta">{{.Entry.Group}} {{.Entry.Device}} {{.Duration}}</span></summary>
<table>
{{range .Entries}}
<tr>
<td><span class="badge {{.Level}}">{{.Level}}</span></td>
<td>{{.Time.Format "15:04:05"}}</td>
<td>{{.Message}}{{if .Error}}<pre>{{.Error.Type}}: {{.Error.Message}}
{{.Error.Stack}}</pre>{{end}}{{if .Image}}<br><img src="{{safeURL .Image}}" alt="screenshot">{{end}}</td>
</tr>
{{end}}
</table>
</details>
{{end}}
</main>
</body>
</html>
`
