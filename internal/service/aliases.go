package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cloo-solutions/aliasgen/internal/aliases"
	"github.com/cloo-solutions/aliasgen/internal/config"
	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/cloo-solutions/aliasgen/internal/openai"
	"github.com/cloo-solutions/aliasgen/internal/prompt"
	"github.com/cloo-solutions/aliasgen/internal/telemetry"
	"github.com/google/uuid"
)

// Host is what the pipeline needs from the application owning the documents.
type Host interface {
	// ActiveDocument returns nil, nil when no document is open.
	ActiveDocument(ctx context.Context) (*domain.Document, error)
	ReadBody(ctx context.Context, handle string) (string, error)
	// ReadFrontmatterAliases returns nil, a string or a sequence.
	ReadFrontmatterAliases(ctx context.Context, handle string) (any, error)
	WriteFrontmatterAliases(ctx context.Context, handle string, set domain.AliasSet) error
	Notify(ctx context.Context, message string)
}

// DocumentLookup is implemented by hosts that can resolve any handle, not
// only the active document.
type DocumentLookup interface {
	Document(ctx context.Context, handle string) (*domain.Document, error)
}

// Completer sends a prompt to the language model.
type Completer interface {
	Complete(ctx context.Context, p prompt.Prompt, opts openai.CompletionOptions) (string, error)
}

// RunRecorder persists the outcome of each invocation.
type RunRecorder interface {
	Create(ctx context.Context, run *domain.AliasRun) error
}

// SettingsProvider returns the settings in effect. It is called once per
// invocation.
type SettingsProvider func() (config.Settings, error)

// StaticSettings returns a SettingsProvider that always yields s.
func StaticSettings(s config.Settings) SettingsProvider {
	return func() (config.Settings, error) {
		return s, nil
	}
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// Result describes a finished invocation.
type Result struct {
	RunID      string          `json:"run_id"`
	Handle     string          `json:"handle"`
	Title      string          `json:"title"`
	Mode       domain.Mode     `json:"mode"`
	State      State           `json:"state"`
	Strategy   string          `json:"strategy,omitempty"`
	Discovered []string        `json:"discovered"`
	Aliases    domain.AliasSet `json:"aliases"`
	Added      int             `json:"added"`
}

// AliasService runs the alias generation pipeline against a Host.
type AliasService struct {
	host      Host
	completer Completer
	settings  SettingsProvider
	recorder  RunRecorder
	uuidGen   UUIDGenerator

	mu      sync.Mutex
	running *inFlight
}

// NewAliasService creates a new AliasService. recorder may be nil.
func NewAliasService(host Host, completer Completer, settings SettingsProvider, recorder RunRecorder) *AliasService {
	return NewAliasServiceWithUUIDGen(host, completer, settings, recorder, &DefaultUUIDGenerator{})
}

// NewAliasServiceWithUUIDGen creates a new AliasService with custom UUID generator (for testing)
func NewAliasServiceWithUUIDGen(host Host, completer Completer, settings SettingsProvider, recorder RunRecorder, uuidGen UUIDGenerator) *AliasService {
	return &AliasService{
		host:      host,
		completer: completer,
		settings:  settings,
		recorder:  recorder,
		uuidGen:   uuidGen,
		running:   newInFlight(),
	}
}

// Generate discovers aliases for the host's active document and merges them
// into its front matter.
func (s *AliasService) Generate(ctx context.Context, mode domain.Mode) (*Result, error) {
	inv := s.begin(mode)

	doc, err := s.host.ActiveDocument(ctx)
	if err != nil {
		return inv.abort(ctx, fmt.Errorf("failed to get active document: %w", err))
	}
	if doc == nil {
		return inv.abort(ctx, domain.ErrNoActiveDocument)
	}

	return inv.run(ctx, doc)
}

// GenerateFor runs the pipeline for the document behind handle.
func (s *AliasService) GenerateFor(ctx context.Context, handle string, mode domain.Mode) (*Result, error) {
	inv := s.begin(mode)

	clean, err := domain.CleanHandle(handle)
	if err != nil {
		inv.result.Handle = handle
		return inv.abort(ctx, err)
	}

	doc := &domain.Document{Handle: clean, Title: domain.TitleFromHandle(clean)}
	if lookup, ok := s.host.(DocumentLookup); ok {
		doc, err = lookup.Document(ctx, clean)
		if err != nil {
			inv.result.Handle = clean
			return inv.abort(ctx, err)
		}
	}

	return inv.run(ctx, doc)
}

func (s *AliasService) begin(mode domain.Mode) *invocation {
	return &invocation{
		svc:     s,
		started: time.Now(),
		result: &Result{
			RunID: s.uuidGen.NewString(),
			Mode:  mode,
			State: StateIdle,
		},
	}
}

func (s *AliasService) acquire(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running.acquire(handle)
}

func (s *AliasService) release(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running.release(handle)
}

// invocation carries the state of one pipeline run.
type invocation struct {
	svc      *AliasService
	started  time.Time
	result   *Result
	settings config.Settings
	span     *telemetry.Span
}

func (inv *invocation) transition(ctx context.Context, to State) {
	from := inv.result.State
	inv.result.State = to
	log.Printf("aliases: %s -> %s (document=%q mode=%s)", from, to, inv.result.Handle, inv.result.Mode)
	telemetry.AddBreadcrumb(ctx, "aliases", fmt.Sprintf("%s -> %s", from, to))
}

func (inv *invocation) run(ctx context.Context, doc *domain.Document) (*Result, error) {
	s := inv.svc
	inv.result.Handle = doc.Handle
	inv.result.Title = doc.Title

	ctx, span := telemetry.StartSpan(ctx, "AliasService.Generate", telemetry.SpanAttributes{
		Handle: doc.Handle,
		Mode:   string(inv.result.Mode),
	})
	defer span.End()
	inv.span = span

	inv.transition(ctx, StateCheckingPreconditions)

	if !inv.result.Mode.IsValid() {
		return inv.abort(ctx, domain.ErrInvalidMode)
	}

	settings, err := s.settings()
	if err != nil {
		return inv.abort(ctx, domain.NewDomainErrorWithCause(domain.ErrCodePrecondition, "settings could not be loaded", err))
	}
	inv.settings = settings.WithDefaults()

	if !settings.HasAPIKey() {
		return inv.abort(ctx, domain.ErrMissingAPIKey)
	}

	if !s.acquire(doc.Handle) {
		return inv.abort(ctx, domain.ErrAlreadyRunning)
	}
	defer s.release(doc.Handle)

	inv.transition(ctx, StatePrompting)

	existing, err := s.host.ReadFrontmatterAliases(ctx, doc.Handle)
	if err != nil {
		return inv.abort(ctx, err)
	}

	var body *string
	if inv.result.Mode.UsesBody() {
		text, err := s.host.ReadBody(ctx, doc.Handle)
		if err != nil {
			return inv.abort(ctx, err)
		}
		body = &text
	}

	p := prompt.Build(doc.Title, body, inv.settings.MaxBodyLength)

	inv.transition(ctx, StateAwaitingCompletion)

	raw, err := s.completer.Complete(ctx, p, openai.CompletionOptions{
		APIKey:      inv.settings.APIKey,
		Temperature: inv.settings.Temperature(inv.result.Mode),
		Model:       inv.settings.Model,
		MaxTokens:   inv.settings.MaxTokens,
		BaseURL:     inv.settings.BaseURL,
	})
	if err != nil {
		return inv.abort(ctx, err)
	}

	inv.transition(ctx, StateParsing)

	parser := aliases.DefaultParser()
	if inv.settings.RepairJSON {
		parser = aliases.RepairingParser()
	}
	parsed, strategy := parser.ParseWith(raw)
	inv.result.Strategy = strategy
	inv.result.Discovered = aliases.Usable(parsed)

	if len(inv.result.Discovered) == 0 {
		log.Printf("aliases: no usable aliases in reply %q (document=%q)", raw, doc.Handle)
		return inv.abort(ctx, domain.ErrNoAliases)
	}

	inv.transition(ctx, StateMerging)

	prior := aliases.Merge(existing, nil)
	merged := aliases.Merge(existing, inv.result.Discovered)
	inv.result.Aliases = merged
	inv.result.Added = len(merged) - len(prior)

	inv.transition(ctx, StateWriting)

	if err := s.host.WriteFrontmatterAliases(ctx, doc.Handle, merged); err != nil {
		return inv.abort(ctx, domain.NewWriteFailedError(err))
	}

	inv.transition(ctx, StateDone)
	span.SetData("added", inv.result.Added)

	s.host.Notify(ctx, fmt.Sprintf("Added %d aliases to \"%s\"", inv.result.Added, doc.Title))
	inv.record(ctx, nil)

	return inv.result, nil
}

// abort ends the invocation with err: the user is notified, the run is
// recorded and err is returned unchanged.
func (inv *invocation) abort(ctx context.Context, err error) (*Result, error) {
	inv.transition(ctx, StateAborted)
	log.Printf("aliases: aborted (document=%q): %v", inv.result.Handle, err)

	switch domain.CodeOf(err) {
	case domain.ErrCodeMalformedResponse, domain.ErrCodeWriteFailed, domain.ErrCodeInternalError:
		if inv.span != nil {
			inv.span.SetError(err)
		} else {
			telemetry.CaptureError(ctx, err)
		}
	default:
		if inv.span != nil {
			inv.span.SetData("error_code", domain.CodeOf(err))
		}
	}

	inv.svc.host.Notify(ctx, domain.UserMessage(err))
	inv.record(ctx, err)

	return inv.result, err
}

func (inv *invocation) record(ctx context.Context, err error) {
	if inv.svc.recorder == nil {
		return
	}

	run := &domain.AliasRun{
		ID:         inv.result.RunID,
		Handle:     inv.result.Handle,
		Mode:       inv.result.Mode,
		Status:     domain.RunStatusDone,
		Discovered: inv.result.Discovered,
		Aliases:    inv.result.Aliases,
		Model:      inv.settings.Model,
		DurationMS: time.Since(inv.started).Milliseconds(),
		CreatedAt:  inv.started.UTC(),
	}
	if err != nil {
		run.Status = domain.RunStatusAborted
		run.ErrorCode = domain.CodeOf(err)
		run.Message = domain.UserMessage(err)
	}
	if !run.Mode.IsValid() {
		return
	}

	if recErr := inv.svc.recorder.Create(context.WithoutCancel(ctx), run); recErr != nil {
		log.Printf("aliases: failed to record run %s: %v", run.ID, recErr)
	}
}
