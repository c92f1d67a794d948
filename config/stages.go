package config

import "time"

// StagesConfig contains the endpoints for the four externally deployed
// pipeline stages. Each stage is a synchronous POST-JSON service.
type StagesConfig struct {
	BriefBuilderURL string `env:"BRIEF_BUILDER_URL" envDefault:"http://localhost:9101/brief"`
	RetrieverURL    string `env:"RETRIEVER_URL"     envDefault:"http://localhost:9102/retrieve"`
	DrafterURL      string `env:"DRAFTER_URL"       envDefault:"http://localhost:9103/draft"`
	EditorURL       string `env:"EDITOR_URL"        envDefault:"http://localhost:9104/edit"`

	// Timeout is the per-call timeout for one stage round trip. Generation
	// stages call hosted language models, so the default is long.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"120s"`
}
