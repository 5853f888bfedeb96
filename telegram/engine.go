package telegram

import (
	"log/slog"

	"github.com/AndyTempel/victron-dlms-gird-meter/errors"
	"github.com/AndyTempel/victron-dlms-gird-meter/profile"
)

// Result is the named output of one processed structure.
type Result struct {
	Name string `json:"name"`
	Data Record `json:"data"`

	Report DeriveReport `json:"-"`
}

// Engine runs match, decode, transform and derive for the selected profile.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	profile *profile.Profile
	matcher *Matcher
	logger  *slog.Logger
}

// NewEngine returns an Engine for p.
func NewEngine(p *profile.Profile, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		profile: p,
		matcher: NewMatcher(p),
		logger:  logger.With("component", "telegram-engine", "profile", p.ID()),
	}
}

// Profile returns the profile the engine was built for.
func (e *Engine) Profile() *profile.Profile { return e.profile }

// Process turns one structure into a named result. Any error means the
// structure was dropped; errors are classified invalid and wrap ErrNoMatch
// or a *DecodeError.
func (e *Engine) Process(s Structure) (Result, error) {
	def, err := e.matcher.Match(s.Qty, s.Tags())
	if err != nil {
		e.logger.Debug("Unknown telegram", "qty", s.Qty, "tags", s.Tags())
		return Result{}, errors.WrapInvalid(err, "Engine", "Process", "match structure")
	}

	rec, err := DecodeRecord(def, s.Fields, e.logger)
	if err != nil {
		e.logger.Debug("Telegram decode failed", "telegram", def.Name, "error", err)
		return Result{}, errors.WrapInvalid(err, "Engine", "Process", "decode "+def.Name)
	}

	rec = Transform(e.profile.Rules, rec, e.logger)
	rec, report := Derive(rec, e.logger)

	return Result{Name: def.Name, Data: rec, Report: report}, nil
}

// ProcessXML parses the listener's XML rendering and processes it.
func (e *Engine) ProcessXML(data []byte) (Result, error) {
	s, err := ParseStructure(data)
	if err != nil {
		return Result{}, err
	}
	return e.Process(s)
}

// MissingRequired returns the profile's required keys absent from rec.
func (e *Engine) MissingRequired(rec Record) []string {
	var missing []string
	for _, key := range e.profile.Info.RequiredKeys {
		if !rec.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}
