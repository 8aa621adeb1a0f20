package analysis

// Result is the full analysis output for one analyzed URL. Optional fields
// use pointers or nil-able collections: a nil value means the engine did not
// compute the field, which the renderer treats differently from a computed
// empty value.
type Result struct {
	Scores              Scores           `json:"scores"`
	DomainAuthority     *DomainAuthority `json:"domain_authority,omitempty"`
	PageSpeed           *PageSpeed       `json:"page_speed,omitempty"`
	SEOQuality          *SEOQuality      `json:"seo_quality,omitempty"`
	UserExperience      *UserExperience  `json:"user_experience,omitempty"`
	AIInsights          *AIInsights      `json:"ai_insights,omitempty"`
	ExtractedTextSample *string          `json:"extracted_text_sample,omitempty"`
}

// Scores holds the three primary dashboard scores, each 0-100 or absent.
type Scores struct {
	SEO   *int `json:"seo,omitempty"`
	Speed *int `json:"speed,omitempty"`
	UX    *int `json:"ux,omitempty"`
}

type DomainAuthority struct {
	Domain          string  `json:"domain"`
	Estimate        string  `json:"domain_authority_estimate"`
	AgeYears        *int    `json:"domain_age_years,omitempty"`
	SSLStatus       *string `json:"ssl_status,omitempty"`
	BlacklistStatus *string `json:"blacklist_status,omitempty"`
	DNSHealth       *string `json:"dns_health,omitempty"`
}

type PageSpeed struct {
	Metrics    StringMap          `json:"metrics"`
	Issues     []PerformanceIssue `json:"issues"`
	ReportLink *string            `json:"full_report_link,omitempty"`
}

type PerformanceIssue struct {
	Title       string   `json:"title"`
	Score       *float64 `json:"score,omitempty"`
	Description *string  `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
}

type SEOQuality struct {
	Score           *int        `json:"score,omitempty"`
	Elements        SEOElements `json:"elements"`
	ImprovementTips []string    `json:"improvement_tips,omitempty"`
}

type SEOElements struct {
	Title              *string       `json:"title,omitempty"`
	MetaDescription    *string       `json:"meta_description,omitempty"`
	BrokenLinks        []string      `json:"broken_links,omitempty"`
	ImageAltStatus     []string      `json:"image_alt_status,omitempty"`
	InternalLinksCount *int          `json:"internal_links_count,omitempty"`
	ExternalLinksCount *int          `json:"external_links_count,omitempty"`
	HTags              StringListMap `json:"h_tags,omitempty"`
	KeywordDensity     FloatMap      `json:"keyword_density,omitempty"`
}

type UserExperience struct {
	Score       *int     `json:"score,omitempty"`
	Issues      []string `json:"issues,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// AIInsights holds the conditional AI panels. A panel is rendered only when
// its field is a non-empty string other than the literal "N/A".
type AIInsights struct {
	Summary                   *string `json:"summary,omitempty"`
	SEOImprovementSuggestions *string `json:"seo_improvement_suggestions,omitempty"`
	ContentOriginalityTone    *string `json:"content_originality_tone,omitempty"`
}

// ArticleResult is the output of one article-content analysis.
type ArticleResult struct {
	StructureSuggestions  *string  `json:"structure_suggestions,omitempty"`
	KeywordSuggestions    []string `json:"keyword_suggestions,omitempty"`
	ContentHealth         *string  `json:"content_health,omitempty"`
	OriginalityAssessment *string  `json:"originality_assessment,omitempty"`
}

// SEORewriteRequest asks the engine for AI-generated title and meta
// description rewrites.
type SEORewriteRequest struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Keywords        []string `json:"keywords"`
}

// SEORewriteResult carries the rewrite candidates.
type SEORewriteResult struct {
	Titles           []string `json:"titles,omitempty"`
	MetaDescriptions []string `json:"meta_descriptions,omitempty"`
}

// RefinedContent carries the AI content-refinement output.
type RefinedContent struct {
	RefinedText *string  `json:"refined_text,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}
