package generate

// IconSize is one file a template requires.
type IconSize struct {
	Name   string `json:"name" toml:"name"` // relative path, may include subdirectories
	Width  int    `json:"width" toml:"width"`
	Height int    `json:"height" toml:"height"`
	Format string `json:"format" toml:"format"`
}

// Request is the input of one job.
type Request struct {
	ImageData    string     `json:"image_data"` // data URI or bare base64
	OutputPath   string     `json:"output_path"`
	Icons        []IconSize `json:"icons"`
	TemplateName string     `json:"template_name"`
}

// FailedIcon is an icon a job could not produce.
type FailedIcon struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result is the outcome of a job, or the combination of several.
type Result struct {
	Success      bool         `json:"success"`
	Generated    []string     `json:"generated"`
	Failed       []FailedIcon `json:"failed"`
	OutputPath   string       `json:"output_path"`
	TemplateName string       `json:"template_name"`
}

// ProgressEvent is emitted by a job before it works on an icon.
type ProgressEvent struct {
	TemplateName string `json:"template_name"`
	Current      int    `json:"current"`
	Total        int    `json:"total"`
	CurrentIcon  string `json:"current_icon"`
}

// Progress is the aggregate state of a multi-template run.
type Progress struct {
	IsGenerating       bool     `json:"isGenerating"`
	CurrentTemplate    string   `json:"currentTemplate"`
	CurrentIcon        string   `json:"currentIcon"`
	Current            int      `json:"current"`
	Total              int      `json:"total"`
	CompletedTemplates []string `json:"completedTemplates"`
	Results            []Result `json:"results"`
}

// Clone returns a deep copy safe for cross-goroutine publication.
func (p Progress) Clone() Progress {
	cloned := p
	cloned.CompletedTemplates = append([]string(nil), p.CompletedTemplates...)
	cloned.Results = make([]Result, len(p.Results))
	for i, r := range p.Results {
		cloned.Results[i] = r.clone()
	}
	return cloned
}

func (r Result) clone() Result {
	r.Generated = append([]string(nil), r.Generated...)
	r.Failed = append([]FailedIcon(nil), r.Failed...)
	return r
}
