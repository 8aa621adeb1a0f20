package render

// Badge is a score number with its tier classification.
type Badge struct {
	Text string `json:"text"`
	Tier Tier   `json:"tier,omitempty"`
}

// Bar is a progress-bar fill with its tier classification.
type Bar struct {
	Width int  `json:"width"`
	Tier  Tier `json:"tier,omitempty"`
}

// ScoreView pairs the badge and progress-bar renderings of one score.
type ScoreView struct {
	Badge Badge `json:"badge"`
	Bar   Bar   `json:"bar"`
}

// Row is one list entry. Placeholder and affirmative rows are marked
// Positive so the surface can style them as good news.
type Row struct {
	Text     string `json:"text"`
	Positive bool   `json:"positive,omitempty"`
}

// Section is an ordered list section. It never has zero rows: an empty or
// absent source renders exactly one placeholder row.
type Section struct {
	Rows []Row `json:"rows"`
}

// KV is one key-value row of a map-backed section.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Panel is a conditional text panel. Absent panels are omitted from the
// dashboard entirely rather than rendered empty.
type Panel struct {
	Text string `json:"text"`
}

// DomainPanel is the domain authority and trust section.
type DomainPanel struct {
	Domain          string `json:"domain"`
	Estimate        string `json:"estimate"`
	Age             string `json:"age"`
	SSLStatus       string `json:"sslStatus"`
	BlacklistStatus string `json:"blacklistStatus"`
	DNSHealth       string `json:"dnsHealth"`
}

// SEOPanel is the SEO quality and structure section.
type SEOPanel struct {
	Title           string  `json:"title"`
	MetaDescription string  `json:"metaDescription"`
	BrokenLinks     string  `json:"brokenLinks"`
	MissingAlt      string  `json:"missingAlt"`
	InternalLinks   string  `json:"internalLinks"`
	ExternalLinks   string  `json:"externalLinks"`
	HTags           []KV    `json:"hTags"`
	KeywordDensity  []KV    `json:"keywordDensity"`
	Tips            Section `json:"tips"`
}

// UXPanel is the user experience section.
type UXPanel struct {
	Issues      Section `json:"issues"`
	Suggestions Section `json:"suggestions"`
}

// Dashboard is the structured multi-section view of one analysis result.
type Dashboard struct {
	Source string `json:"source"`

	SEO   ScoreView `json:"seo"`
	Speed ScoreView `json:"speed"`
	UX    ScoreView `json:"ux"`

	Domain            DomainPanel `json:"domain"`
	WebVitals         []KV        `json:"webVitals"`
	PerformanceIssues Section     `json:"performanceIssues"`
	ReportLink        string      `json:"reportLink"`

	SEODetail SEOPanel `json:"seoDetail"`
	UXDetail  UXPanel  `json:"uxDetail"`

	AISummary        *Panel `json:"aiSummary,omitempty"`
	AISEOSuggestions *Panel `json:"aiSeoSuggestions,omitempty"`
	AIContentTone    *Panel `json:"aiContentTone,omitempty"`
}

// ArticleView is the structured view of one article analysis.
type ArticleView struct {
	Structure     string  `json:"structure"`
	Keywords      Section `json:"keywords"`
	ContentHealth string  `json:"contentHealth"`
	Originality   string  `json:"originality"`
}
