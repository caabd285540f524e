package model

// Layout names accepted at mount time.
const (
	LayoutMCQ       = "MCQ"
	LayoutMCQEditor = "MCQ_EDITOR"
	CanvasMCQImage  = "MCQ_IMG"
)

// EngineConfig is what getConfig reports to the shell.
type EngineConfig struct {
	ResizeMode   string `json:"resizeMode"`
	ResizeHeight string `json:"resizeHeight"`
	MaxRetries   int    `json:"maxRetries,omitempty"`
}

// EngineParams are the shell-supplied mount parameters.
type EngineParams struct {
	EngineType            string `json:"engine_type"`
	QuestionMediaBasePath string `json:"question_media_base_path"`
	ActivityRef           string `json:"activity_ref"`
}
