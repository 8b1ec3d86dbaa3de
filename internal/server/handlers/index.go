package handlers

import (
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Service}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; background: #f5f5f5; }
        .container { max-width: 800px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .status { padding: 15px; border-radius: 8px; margin: 15px 0; }
        .success { background: #d4edda; color: #155724; border-left: 4px solid #28a745; }
        .warning { background: #fff3cd; color: #856404; border-left: 4px solid #ffc107; }
        .info { background: #d1ecf1; color: #0c5460; border-left: 4px solid #17a2b8; }
        .feature { background: #e7f3ff; padding: 10px; margin: 8px 0; border-radius: 5px; border-left: 4px solid #007bff; }
    </style>
</head>
<body>
    <div class="container">
        <h1>🚀 {{.Service}} {{.Version}}</h1>
        <div class="status success">
            <strong>✅ Backend Server Active</strong>
        </div>

        <h3>🎯 System Status:</h3>
        {{if .AI}}<div class="status success">
            <strong>🤖 AI Model:</strong> ✅ Online (Full AI Features){{with .Model}} · {{.}}{{end}}
        </div>{{else}}<div class="status warning">
            <strong>🤖 AI Model:</strong> ⚠️ Fallback Mode (Search &amp; Math Only)
        </div>{{end}}
        <div class="status {{if .Search}}success{{else}}warning{{end}}">
            <strong>🔍 Web Search:</strong> {{if .Search}}✅ Online{{else}}⚠️ Limited{{end}}
        </div>
        <div class="status info">
            <strong>💡 Mode Saat Ini:</strong>
            {{if .AI}}Full AI Assistant{{else}}Search &amp; Math Assistant{{end}}
        </div>

        <h3>🎯 Active Features:</h3>
        <div class="feature"><strong>🧮 Math Solver</strong> - Aljabar, Kalkulus, Geometri <strong>({{if .Math}}✅ Active{{else}}⚠️ Disabled{{end}})</strong></div>
        <div class="feature"><strong>🔍 Search</strong> - Web + News <strong>({{if .Search}}✅ Active{{else}}⚠️ Limited{{end}})</strong></div>
        <div class="feature"><strong>🌐 Content Extraction</strong> <strong>({{if .Scraping}}✅ Active{{else}}⚠️ Disabled{{end}})</strong></div>

        <h3>Available Endpoints:</h3>
        <ul>
            <li><a href="/api/health">/api/health</a> - Status server &amp; features</li>
            <li><a href="/api/test">/api/test</a> - Test connection</li>
            <li>/api/ask - Question endpoint (POST/GET)</li>
            {{if .Scraping}}<li>/api/fetch?url= - Page content extraction</li>{{end}}
        </ul>
    </div>
</body>
</html>
`))

type indexData struct {
	Service  string
	Version  string
	Model    string
	AI       bool
	Search   bool
	Math     bool
	Scraping bool
}

// Index renders the HTML status page.
func (a *API) Index(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		Service:  ServiceName,
		Version:  AppVersion,
		Model:    a.Capabilities.Model,
		AI:       a.Capabilities.AIAvailable,
		Search:   a.Features.Search && a.Capabilities.SearchAvailable,
		Math:     a.Features.MathSolver,
		Scraping: a.Features.WebScraping,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := indexTemplate.Execute(w, data); err != nil && a.logger() != nil {
		a.logger().Warn("Failed to render index page", zap.Error(err))
	}
}
