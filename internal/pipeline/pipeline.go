package pipeline

import (
	"context"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/dbrag/dbrag-server/internal/db"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
	"github.com/dbrag/dbrag-server/internal/llm"
	"github.com/dbrag/dbrag-server/internal/schema"

	"go.uber.org/zap"
)

// Message is one turn of prior conversation handed in by the caller. The
// one-shot flow carries it through without feeding it to the model.
type Message struct {
	Role    string `json:"role" msgpack:"role"`
	Content string `json:"content" msgpack:"content"`
}

// AnswerRequest is the full invocation contract: the question plus the
// optional model override and request metadata from the host.
type AnswerRequest struct {
	Question string
	Model    string
	History  []Message
	Metadata map[string]interface{}
}

// Pipeline owns the database handle and builds a fresh engine per request.
// Startup must run before the first Answer call; Shutdown is a no-op by
// contract, the process owner closes the driver.
type Pipeline struct {
	cfg         *config.Config
	logger      *zap.Logger
	driver      drivers.Driver
	generator   llm.Generator
	synthesizer llm.Synthesizer
	prompt      *Prompt
	started     bool
}

// Option funcs used to initialize the Pipeline struct
type OptionFunc func(p *Pipeline)

func WithDriver(driver drivers.Driver) OptionFunc {
	return func(p *Pipeline) {
		p.driver = driver
	}
}

func WithGenerator(generator llm.Generator) OptionFunc {
	return func(p *Pipeline) {
		p.generator = generator
	}
}

func WithSynthesizer(synthesizer llm.Synthesizer) OptionFunc {
	return func(p *Pipeline) {
		p.synthesizer = synthesizer
	}
}

func New(cfg *config.Config, logger *zap.Logger, options ...OptionFunc) (*Pipeline, error) {
	prompt, err := NewPrompt()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfiguration, "failed to parse prompt template", err)
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		prompt: prompt,
	}

	for _, opt := range options {
		opt(p)
	}

	return p, nil
}

// Startup opens the database connection (unless one was injected) and
// verifies every configured table exists, so a typo in DB_TABLE fails here
// rather than in the middle of the first question.
func (p *Pipeline) Startup(ctx context.Context) error {
	if p.driver == nil {
		driver, err := db.NewConnection(ctx, p.cfg)
		if err != nil {
			return err
		}
		p.driver = driver
	}

	if p.generator == nil {
		p.generator = llm.NewSQLGenerator(p.cfg.Ollama)
	}
	if p.synthesizer == nil {
		p.synthesizer = llm.NewAnswerSynthesizer(p.cfg.Ollama)
	}

	introspector := schema.NewIntrospector(p.driver)
	for _, table := range p.cfg.DB.Tables() {
		if _, err := introspector.Describe(ctx, table); err != nil {
			return err
		}
	}

	p.started = true

	p.logger.Info("pipeline started",
		zap.String("dialect", p.driver.Dialect()),
		zap.Strings("tables", p.cfg.DB.Tables()),
		zap.String("model", p.cfg.Ollama.Model),
	)

	return nil
}

func (p *Pipeline) Shutdown(_ context.Context) error {
	return nil
}

func (p *Pipeline) Driver() drivers.Driver {
	return p.driver
}

// Answer runs one question through a fresh engine. Every call binds the
// same tables and renders the same prompt shape; only the completions
// differ between runs.
func (p *Pipeline) Answer(ctx context.Context, req AnswerRequest) (*Result, error) {
	if !p.started {
		return nil, apperrors.New(apperrors.CodeConfiguration, "pipeline not started: call Startup before Answer")
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Ollama.Model
	}

	engine := NewEngine(
		p.driver,
		p.generator,
		p.synthesizer,
		p.prompt,
		p.cfg.DB.Tables(),
		model,
		p.cfg.DB.AllowWrites,
	)

	return engine.Answer(ctx, req.Question)
}
