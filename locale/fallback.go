package locale

// fallback is the static default-language dictionary. It is always
// available, even when the locale store is unreachable.
var fallback = map[string]string{
	"invalidUrl":            "Please enter a valid URL (e.g., https://example.com).",
	"pleaseEnterArticle":    "Please enter article content.",
	"invalidInput":          "Invalid input provided.",
	"analysisTimedOut":      "Analysis timed out. The server took too long to respond. Please try again later.",
	"networkError":          "Network error. Could not connect to the server. Please check your internet connection and try again.",
	"serverError":           "Server error.",
	"serverReturnedNonJson": "Server returned invalid data.",
	"analysisFailed":        "Analysis failed. Please try again later.",
	"analysisInProgress":    "An analysis is already in progress.",

	"analyzeFirst":     "Please analyze a website first to generate a report.",
	"generatingReport": "Generating report...",
	"exportFailed":     "Failed to generate PDF report.",

	"noPerformanceIssues": "No major performance issues detected.",
	"noSeoIssues":         "Looks good! No critical SEO issues detected based on our analysis.",
	"noUxIssues":          "No major UX issues detected based on our heuristic analysis.",
	"noUxSuggestions":     "No additional UX suggestions.",
	"noKeywordsFound":     "No keywords found.",

	"noSuggestionsAvailable": "No suggestions available.",
	"noAssessmentAvailable":  "No assessment available.",
	"noRewrittenArticle":     "No rewritten article available.",

	"authMissingCredentials": "Please enter your email and password.",
	"authInvalidCredentials": "Invalid email or password.",
	"authPopupClosed":        "The sign-in popup was closed before completing.",
	"authPopupCancelled":     "The sign-in request was cancelled.",
	"authAccountConflict":    "An account already exists with a different sign-in method.",
	"authFailed":             "Authentication failed. Please try again.",
	"registrationSuccess":    "Registration successful. Please log in.",
	"loginRequired":          "Please log in to continue.",
}
