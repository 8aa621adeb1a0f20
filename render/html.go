package render

import (
	"html/template"
	"strings"
)

// HTML renders the dashboard view as an HTML fragment, the server-side
// analogue of the page's DOM binding. Element ids match the dashboard
// markup so the surface can hydrate in place.
func (d Dashboard) HTML() (string, error) {
	var b strings.Builder
	if err := dashboardTmpl.Execute(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<div id="results-dashboard">
  <p id="analyzed-url">{{.Source}}</p>
  <div class="score-cards">
    <div id="seo-score" class="score-badge {{.SEO.Badge.Tier}}">{{.SEO.Badge.Text}}</div>
    <div id="seo-progress" class="progress {{.SEO.Bar.Tier}}" style="width:{{.SEO.Bar.Width}}%"></div>
    <div id="speed-score" class="score-badge {{.Speed.Badge.Tier}}">{{.Speed.Badge.Text}}</div>
    <div id="speed-progress" class="progress {{.Speed.Bar.Tier}}" style="width:{{.Speed.Bar.Width}}%"></div>
    <div id="ux-score" class="score-badge {{.UX.Badge.Tier}}">{{.UX.Badge.Text}}</div>
    <div id="ux-progress" class="progress {{.UX.Bar.Tier}}" style="width:{{.UX.Bar.Width}}%"></div>
  </div>
{{if .AISummary}}  <section id="ai-summary-section"><p>{{.AISummary.Text}}</p></section>
{{end}}  <section id="domain-authority">
    <span id="domain-name">{{.Domain.Domain}}</span>
    <span id="domain-authority-estimate">{{.Domain.Estimate}}</span>
    <span id="domain-age">{{.Domain.Age}}</span>
    <span id="ssl-status">{{.Domain.SSLStatus}}</span>
    <span id="blacklist-status">{{.Domain.BlacklistStatus}}</span>
    <span id="dns-health">{{.Domain.DNSHealth}}</span>
  </section>
  <section id="page-speed">
    <ul id="core-web-vitals">
{{range .WebVitals}}      <li><strong>{{.Key}}:</strong> {{.Value}}</li>
{{end}}    </ul>
    <ul id="performance-issues">
{{range .PerformanceIssues.Rows}}      <li{{if .Positive}} class="positive"{{end}}>{{.Text}}</li>
{{end}}    </ul>
    <a id="pagespeed-link" href="{{.ReportLink}}">Full report</a>
  </section>
  <section id="seo-quality">
    <span id="seo-title">{{.SEODetail.Title}}</span>
    <span id="seo-meta-description">{{.SEODetail.MetaDescription}}</span>
    <span id="seo-broken-links">{{.SEODetail.BrokenLinks}}</span>
    <span id="seo-missing-alt">{{.SEODetail.MissingAlt}}</span>
    <span id="seo-internal-links">{{.SEODetail.InternalLinks}}</span>
    <span id="seo-external-links">{{.SEODetail.ExternalLinks}}</span>
    <ul id="h-tags-list">
{{range .SEODetail.HTags}}      <li>{{.Key}}: {{.Value}}</li>
{{end}}    </ul>
    <ul id="keyword-density-list">
{{range .SEODetail.KeywordDensity}}      <li>{{.Key}}{{if .Value}}: {{.Value}}{{end}}</li>
{{end}}    </ul>
    <ul id="seo-improvement-tips">
{{range .SEODetail.Tips.Rows}}      <li{{if .Positive}} class="positive"{{end}}>{{.Text}}</li>
{{end}}    </ul>
  </section>
{{if .AISEOSuggestions}}  <section id="ai-seo-suggestions-section"><p>{{.AISEOSuggestions.Text}}</p></section>
{{end}}  <section id="user-experience">
    <ul id="ux-issues-list">
{{range .UXDetail.Issues.Rows}}      <li{{if .Positive}} class="positive"{{end}}>{{.Text}}</li>
{{end}}    </ul>
    <ul id="ux-suggestions-list">
{{range .UXDetail.Suggestions.Rows}}      <li{{if .Positive}} class="positive"{{end}}>{{.Text}}</li>
{{end}}    </ul>
  </section>
{{if .AIContentTone}}  <section id="ai-content-insights-section"><p>{{.AIContentTone.Text}}</p></section>
{{end}}</div>
`))
