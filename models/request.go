package models

// LaunchRequest is the payload for POST /api/v1/sessions/:id/launch.
type LaunchRequest struct {
	// Model is the catalog id of the extraction model.
	// Default: the server's configured default model.
	Model string `json:"model,omitempty"`

	// Scraping toggles listing extraction. Default: true.
	Scraping *bool `json:"scraping,omitempty"`

	// Fields are the listing field names to extract. At least one is
	// required when scraping is enabled.
	Fields []string `json:"fields,omitempty"`

	// Pagination toggles pagination URL detection. Default: false.
	Pagination bool `json:"pagination,omitempty"`

	// PaginationDetails is free-text guidance appended to the
	// pagination prompt (e.g. "next button uses ?page=N").
	PaginationDetails string `json:"pagination_details,omitempty"`

	// MaxOutputTokens caps the completion length. It is clamped to the
	// model's limit minus a fixed margin.
	MaxOutputTokens *int `json:"max_output_tokens,omitempty" binding:"omitempty,min=1"`

	// UseModelMax requests the model's full limit when MaxOutputTokens
	// is unset.
	UseModelMax bool `json:"use_model_max,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *LaunchRequest) Defaults(defaultModel string) {
	if r.Model == "" {
		r.Model = defaultModel
	}
	if r.Scraping == nil {
		t := true
		r.Scraping = &t
	}
}

// ScrapingEnabled reports whether listing extraction was requested.
func (r *LaunchRequest) ScrapingEnabled() bool {
	return r.Scraping == nil || *r.Scraping
}

// RunRequest is the payload for the stateless POST /api/v1/runs.
type RunRequest struct {
	LaunchRequest

	// URLs is the list of pages to process. Required.
	URLs []string `json:"urls" binding:"required,min=1,max=100,dive,url"`

	// Credentials overrides server-side provider keys and database
	// credentials for this run only.
	Credentials map[string]string `json:"credentials,omitempty"`

	// WebhookURL receives a signed run.completed event.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// CreateSessionRequest is the payload for POST /api/v1/sessions.
type CreateSessionRequest struct {
	// Credentials are session-level overrides for provider keys and the
	// database (OPENAI_API_KEY, DATABASE_URL, ...).
	Credentials map[string]string `json:"credentials,omitempty"`

	// URLs optionally seeds the session's URL list.
	URLs []string `json:"urls,omitempty" binding:"omitempty,dive,url"`

	// WebhookURL receives a signed run.completed event after each launch.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`
}

// AddURLsRequest is the payload for POST /api/v1/sessions/:id/urls.
type AddURLsRequest struct {
	// Text holds one or more URLs separated by spaces, tabs or newlines.
	Text string `json:"text" binding:"required"`
}
