// Package render maps a result document and the active locale dictionary to
// the structured dashboard view. Rendering is a pure function of its inputs:
// deterministic, order-preserving and free of side effects.
package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/webinsight/dashboard/analysis"
)

// maxKeywordRows caps the keyword density section.
const maxKeywordRows = 10

// Localizer resolves dictionary keys to display text.
type Localizer interface {
	T(key string) string
}

// Render builds the dashboard view for one result document. source is the
// analyzed identifier (the URL as entered).
func Render(source string, doc *analysis.Result, loc Localizer) Dashboard {
	d := Dashboard{
		Source: source,
		SEO:    ScoreView{Badge: ScoreBadge(doc.Scores.SEO), Bar: ScoreBar(doc.Scores.SEO)},
		Speed:  ScoreView{Badge: ScoreBadge(doc.Scores.Speed), Bar: ScoreBar(doc.Scores.Speed)},
		UX:     ScoreView{Badge: ScoreBadge(doc.Scores.UX), Bar: ScoreBar(doc.Scores.UX)},
	}

	d.Domain = renderDomain(doc.DomainAuthority)
	d.WebVitals, d.PerformanceIssues, d.ReportLink = renderPageSpeed(doc.PageSpeed, loc)
	d.SEODetail = renderSEO(doc.SEOQuality, loc)
	d.UXDetail = renderUX(doc.UserExperience, loc)

	if doc.AIInsights != nil {
		d.AISummary = aiPanel(doc.AIInsights.Summary)
		d.AISEOSuggestions = aiPanel(doc.AIInsights.SEOImprovementSuggestions)
		d.AIContentTone = aiPanel(doc.AIInsights.ContentOriginalityTone)
	}
	return d
}

// RenderArticle builds the view for one article analysis.
func RenderArticle(res *analysis.ArticleResult, loc Localizer) ArticleView {
	return ArticleView{
		Structure:     textOrDefault(res.StructureSuggestions, loc.T("noSuggestionsAvailable")),
		Keywords:      listSection(res.KeywordSuggestions, "noKeywordsFound", loc),
		ContentHealth: textOrDefault(res.ContentHealth, loc.T("noAssessmentAvailable")),
		Originality:   textOrDefault(res.OriginalityAssessment, loc.T("noAssessmentAvailable")),
	}
}

func renderDomain(da *analysis.DomainAuthority) DomainPanel {
	if da == nil {
		return DomainPanel{
			Domain: "N/A", Estimate: "N/A", Age: "N/A",
			SSLStatus: "N/A", BlacklistStatus: "N/A", DNSHealth: "N/A",
		}
	}
	age := "N/A"
	if da.AgeYears != nil {
		age = fmt.Sprintf("%d years", *da.AgeYears)
	}
	return DomainPanel{
		Domain:          orNA(da.Domain),
		Estimate:        orNA(da.Estimate),
		Age:             age,
		SSLStatus:       ptrOrNA(da.SSLStatus),
		BlacklistStatus: ptrOrNA(da.BlacklistStatus),
		DNSHealth:       ptrOrNA(da.DNSHealth),
	}
}

func renderPageSpeed(ps *analysis.PageSpeed, loc Localizer) ([]KV, Section, string) {
	if ps == nil {
		return nil, placeholderSection("noPerformanceIssues", loc), "#"
	}

	// Core web vitals: one row per present key, in the document's order.
	// A falsy value still renders its key, with "N/A" as the value.
	var vitals []KV
	for _, key := range ps.Metrics.Keys {
		value := ps.Metrics.Values[key]
		if value == "" {
			value = "N/A"
		}
		vitals = append(vitals, KV{Key: key, Value: value})
	}

	issues := Section{}
	if len(ps.Issues) == 0 {
		issues = placeholderSection("noPerformanceIssues", loc)
	} else {
		for _, issue := range ps.Issues {
			issues.Rows = append(issues.Rows, Row{Text: formatIssue(issue)})
		}
	}

	link := "#"
	if ps.ReportLink != nil && *ps.ReportLink != "" {
		link = *ps.ReportLink
	}
	return vitals, issues, link
}

func formatIssue(issue analysis.PerformanceIssue) string {
	var b strings.Builder
	b.WriteString(issue.Title)
	if issue.Score != nil {
		fmt.Fprintf(&b, " (Score: %d)", int(math.Round(*issue.Score)))
	}
	b.WriteString(": ")
	if issue.Description != nil {
		b.WriteString(*issue.Description)
	}
	if len(issue.Images) > 0 {
		b.WriteString(" Images: ")
		b.WriteString(strings.Join(issue.Images, ", "))
	}
	return b.String()
}

func renderSEO(sq *analysis.SEOQuality, loc Localizer) SEOPanel {
	if sq == nil {
		return SEOPanel{
			Title: "N/A", MetaDescription: "N/A", BrokenLinks: "N/A",
			MissingAlt: "N/A", InternalLinks: "N/A", ExternalLinks: "N/A",
			Tips: placeholderSection("noSeoIssues", loc),
		}
	}
	el := sq.Elements

	panel := SEOPanel{
		Title:           ptrOrNA(el.Title),
		MetaDescription: ptrOrNA(el.MetaDescription),
		BrokenLinks:     countOrNA(el.BrokenLinks, func(string) bool { return true }),
		MissingAlt:      countOrNA(el.ImageAltStatus, isMissingAlt),
		InternalLinks:   intOrNA(el.InternalLinksCount),
		ExternalLinks:   intOrNA(el.ExternalLinksCount),
		Tips:            listSection(sq.ImprovementTips, "noSeoIssues", loc),
	}

	// Heading tags: keys whose value is an empty list are skipped entirely.
	for _, tag := range el.HTags.Keys {
		values := el.HTags.Values[tag]
		if len(values) == 0 {
			continue
		}
		panel.HTags = append(panel.HTags, KV{Key: tag, Value: strings.Join(values, ", ")})
	}

	panel.KeywordDensity = keywordRows(el.KeywordDensity, loc)
	return panel
}

// keywordRows sorts keyword density entries by density descending, keeping
// the document's order for ties, and takes at most the first ten.
func keywordRows(kd analysis.FloatMap, loc Localizer) []KV {
	if kd.Len() == 0 {
		return []KV{{Key: loc.T("noKeywordsFound"), Value: ""}}
	}

	keys := make([]string, len(kd.Keys))
	copy(keys, kd.Keys)
	sort.SliceStable(keys, func(i, j int) bool {
		return kd.Values[keys[i]] > kd.Values[keys[j]]
	})
	if len(keys) > maxKeywordRows {
		keys = keys[:maxKeywordRows]
	}

	rows := make([]KV, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, KV{Key: key, Value: fmt.Sprintf("%.2f%%", kd.Values[key])})
	}
	return rows
}

func renderUX(ux *analysis.UserExperience, loc Localizer) UXPanel {
	if ux == nil {
		return UXPanel{
			Issues:      placeholderSection("noUxIssues", loc),
			Suggestions: placeholderSection("noUxSuggestions", loc),
		}
	}
	return UXPanel{
		Issues:      listSection(ux.Issues, "noUxIssues", loc),
		Suggestions: listSection(ux.Suggestions, "noUxSuggestions", loc),
	}
}

// aiPanel builds a conditional panel: shown only for a non-empty string that
// is not the literal "N/A" placeholder.
func aiPanel(text *string) *Panel {
	if text == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*text)
	if trimmed == "" || trimmed == "N/A" {
		return nil
	}
	return &Panel{Text: trimmed}
}

// listSection renders items in input order, unmodified. An empty or absent
// source yields exactly one affirmative placeholder row.
func listSection(items []string, placeholderKey string, loc Localizer) Section {
	if len(items) == 0 {
		return placeholderSection(placeholderKey, loc)
	}
	s := Section{Rows: make([]Row, 0, len(items))}
	for _, item := range items {
		s.Rows = append(s.Rows, Row{Text: item})
	}
	return s
}

func placeholderSection(key string, loc Localizer) Section {
	return Section{Rows: []Row{{Text: loc.T(key), Positive: true}}}
}

func isMissingAlt(status string) bool {
	return strings.Contains(status, "Missing") || strings.Contains(status, "Empty")
}

// countOrNA distinguishes "data unavailable" from "computed, found nothing":
// a nil list renders "N/A" while a present empty list renders "0".
func countOrNA(list []string, match func(string) bool) string {
	if list == nil {
		return "N/A"
	}
	n := 0
	for _, item := range list {
		if match(item) {
			n++
		}
	}
	return strconv.Itoa(n)
}

func intOrNA(v *int) string {
	if v == nil {
		return "N/A"
	}
	return strconv.Itoa(*v)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func ptrOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func textOrDefault(s *string, def string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return def
	}
	return *s
}
