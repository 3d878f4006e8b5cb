// Package session owns one loop controller per open conversation, so
// several conversations can run turns concurrently without interfering.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"gitchat/internal/agent"
	"gitchat/internal/client"
	"gitchat/internal/config"
	"gitchat/internal/logging"
	"gitchat/internal/store"
	"gitchat/internal/tools"
)

// Attachment is an optional image sent with a user message.
type Attachment struct {
	MIME string
	Data []byte
}

// Sink receives conversation activity for rendering. Implementations must
// tolerate calls from multiple conversation goroutines.
type Sink interface {
	StreamText(conversationID, chunk string)
	ToolActivity(conversationID, text string)
	TurnEnded(conversationID string, result *agent.TurnResult, err error)
}

// runner is the per-conversation state: its controller, cancellation, and
// queued follow-up input.
type runner struct {
	id         string
	controller *agent.Controller
	cancel     context.CancelFunc
	processing bool
	queued     []string
}

// Manager creates, dispatches to, and stops conversations.
type Manager struct {
	cfg      *config.Config
	base     client.Client
	registry *tools.Registry
	store    *store.Store
	sink     Sink

	mu      sync.Mutex
	runners map[string]*runner
}

// NewManager creates a session manager.
func NewManager(cfg *config.Config, base client.Client, registry *tools.Registry, st *store.Store, sink Sink) *Manager {
	return &Manager{
		cfg:      cfg,
		base:     base,
		registry: registry,
		store:    st,
		sink:     sink,
		runners:  make(map[string]*runner),
	}
}

// NewConversation creates a conversation and returns its id.
func (m *Manager) NewConversation() (string, error) {
	id := uuid.NewString()
	if err := m.store.CreateConversation(id, "New chat", m.cfg.Model.Planning); err != nil {
		return "", err
	}
	logging.Info("conversation created", "id", id)
	return id, nil
}

// List returns all conversations, most recently active first.
func (m *Manager) List() ([]store.Conversation, error) {
	return m.store.ListConversations()
}

// Delete stops and removes a conversation.
func (m *Manager) Delete(id string) error {
	m.Stop(id)
	m.mu.Lock()
	delete(m.runners, id)
	m.mu.Unlock()
	return m.store.DeleteConversation(id)
}

// Messages returns a conversation's persisted messages.
func (m *Manager) Messages(id string) ([]store.Message, error) {
	return m.store.Messages(id)
}

// SetModel rebinds a conversation's planning tier to a model id. The
// binding takes effect on the conversation's next turn.
func (m *Manager) SetModel(id, modelID string) error {
	known := false
	for _, info := range client.AvailableModels {
		if info.ID == modelID {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown model %q", modelID)
	}
	if m.Processing(id) {
		return fmt.Errorf("cannot change the model while a turn is running")
	}
	if err := m.store.SetModel(id, modelID); err != nil {
		return err
	}
	// Drop the runner so the next Send rebuilds it on the new binding.
	m.mu.Lock()
	delete(m.runners, id)
	m.mu.Unlock()
	logging.Info("conversation model changed", "id", id, "model", modelID)
	return nil
}

// Processing reports whether a conversation has a turn in flight.
func (m *Manager) Processing(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runners[id]
	return ok && r.processing
}

// Send dispatches user input to a conversation. If a turn is already in
// flight the input is queued and joins the next turn when the current one
// ends.
func (m *Manager) Send(id, text string, att *Attachment) error {
	msg := store.Message{Role: store.RoleUser, Text: text}
	if att != nil {
		msg.ImageMIME = att.MIME
		msg.ImageData = att.Data
	}
	if err := m.store.AppendMessage(id, msg); err != nil {
		return err
	}

	m.mu.Lock()
	r, ok := m.runners[id]
	if !ok {
		var err error
		r, err = m.newRunner(id)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		m.runners[id] = r
	}
	if r.processing {
		r.queued = append(r.queued, text)
		m.mu.Unlock()
		logging.Debug("input queued", "conversation", id, "queued", len(r.queued))
		return nil
	}
	r.processing = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	m.mu.Unlock()

	go m.runTurn(ctx, r, userParts(text, att))
	return nil
}

// Stop cancels the in-flight turn of one conversation. Other
// conversations are unaffected.
func (m *Manager) Stop(id string) {
	m.mu.Lock()
	r, ok := m.runners[id]
	var cancel context.CancelFunc
	if ok && r.processing {
		cancel = r.cancel
	}
	m.mu.Unlock()
	if cancel != nil {
		logging.Info("stopping conversation", "id", id)
		cancel()
	}
}

func (m *Manager) newRunner(id string) (*runner, error) {
	msgs, err := m.store.Messages(id)
	if err != nil {
		return nil, err
	}
	models := m.cfg.Model
	if conv, err := m.store.GetConversation(id); err == nil && conv.Model != "" {
		models.Planning = conv.Model
	}
	r := &runner{id: id}
	events := &runnerEvents{manager: m, id: id}
	// Reload excludes the just-appended user message; it arrives as the
	// turn's input parts.
	r.controller = agent.NewController(m.base, m.registry, m.cfg.Loop, models, rebuildHistory(trimLastUser(msgs)), events)
	return r, nil
}

// runTurn executes one turn and then drains the queue. The processing
// flag is cleared on every exit path, cancellation and panic included.
func (m *Manager) runTurn(ctx context.Context, r *runner, parts []*genai.Part) {
	var result *agent.TurnResult
	var err error

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("turn panicked", "conversation", r.id, "panic", rec)
			err = fmt.Errorf("internal error: %v", rec)
		}
		m.finishTurn(r, result, err)
	}()

	result, err = r.controller.RunTurn(ctx, parts)
	if err != nil {
		logging.Error("turn failed", "conversation", r.id, "error", err)
		return
	}

	if result.Answer != "" {
		role := store.RoleAgent
		if result.Outcome == agent.OutcomeDepthExceeded {
			role = store.RoleSystem
		}
		if perr := m.store.AppendMessage(r.id, store.Message{Role: role, Text: result.Answer}); perr != nil {
			logging.Error("failed to persist answer", "conversation", r.id, "error", perr)
		}
	}

	m.maybeAutoTitle(ctx, r.id)
}

// finishTurn clears processing state, notifies the sink, and dispatches
// queued input as the next turn.
func (m *Manager) finishTurn(r *runner, result *agent.TurnResult, err error) {
	m.mu.Lock()
	r.processing = false
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	queued := r.queued
	r.queued = nil
	m.mu.Unlock()

	if m.sink != nil {
		m.sink.TurnEnded(r.id, result, err)
	}

	if len(queued) == 0 {
		return
	}
	text := strings.Join(queued, "\n\n")
	logging.Info("dispatching queued input", "conversation", r.id, "messages", len(queued))

	m.mu.Lock()
	r.processing = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	m.mu.Unlock()

	go m.runTurn(ctx, r, userParts(text, nil))
}

// maybeAutoTitle names a conversation after its first exchange using the
// planning-tier model.
func (m *Manager) maybeAutoTitle(ctx context.Context, id string) {
	if !m.cfg.Session.AutoTitle || ctx.Err() != nil {
		return
	}
	conv, err := m.store.GetConversation(id)
	if err != nil || conv.Title != "New chat" {
		return
	}
	msgs, err := m.store.Messages(id)
	if err != nil || len(msgs) == 0 {
		return
	}

	var first string
	for _, msg := range msgs {
		if msg.Role == store.RoleUser && msg.Text != "" {
			first = msg.Text
			break
		}
	}
	if first == "" {
		return
	}

	titler := m.base.WithModel(m.cfg.Model.Planning)
	titler.SetTools(nil)
	prompt := fmt.Sprintf("Write a title of at most five words for a conversation that starts with: %q. Reply with the title only.", first)
	resp, err := titler.SendTurn(ctx, nil, []*genai.Part{{Text: prompt}})
	if err != nil {
		logging.Debug("auto-title failed", "conversation", id, "error", err)
		return
	}
	title := strings.Trim(strings.TrimSpace(resp.Text), `"'`)
	if title == "" {
		return
	}
	if err := m.store.RenameConversation(id, title); err != nil {
		logging.Debug("auto-title rename failed", "conversation", id, "error", err)
	}
}

// runnerEvents persists tool activity and forwards it to the sink.
type runnerEvents struct {
	manager *Manager
	id      string
}

func (e *runnerEvents) Text(chunk string) {
	if e.manager.sink != nil {
		e.manager.sink.StreamText(e.id, chunk)
	}
}

func (e *runnerEvents) ToolCall(name string, args map[string]any) {
	if e.manager.sink != nil {
		e.manager.sink.ToolActivity(e.id, describeCall(name, args))
	}
	text := name
	if len(args) > 0 {
		if data, err := json.Marshal(args); err == nil {
			text = fmt.Sprintf("%s(%s)", name, data)
		}
	}
	if err := e.manager.store.AppendMessage(e.id, store.Message{Role: store.RoleSystem, Text: text}); err != nil {
		logging.Debug("failed to persist tool call", "conversation", e.id, "error", err)
	}
}

// ToolResult persists the full text the model received. Truncating here
// would make a reloaded conversation diverge from what the model saw.
func (e *runnerEvents) ToolResult(name, content string, success bool) {
	text := fmt.Sprintf("%s → %s", name, content)
	if err := e.manager.store.AppendMessage(e.id, store.Message{Role: store.RoleSystem, Text: text}); err != nil {
		logging.Debug("failed to persist tool result", "conversation", e.id, "error", err)
	}
}

func (e *runnerEvents) ModelSwitched(from, to string) {
	if e.manager.sink != nil {
		e.manager.sink.ToolActivity(e.id, fmt.Sprintf("switching model %s → %s", from, to))
	}
}

func describeCall(name string, args map[string]any) string {
	if len(args) == 0 {
		return name
	}
	pairs := make([]string, 0, len(args))
	for k, v := range args {
		s := fmt.Sprint(v)
		if len(s) > 60 {
			s = s[:60] + "…"
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, s))
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(pairs, ", "))
}

// userParts builds the model input parts for a user message.
func userParts(text string, att *Attachment) []*genai.Part {
	parts := []*genai.Part{{Text: text}}
	if att != nil {
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{
			MIMEType: att.MIME,
			Data:     att.Data,
		}})
	}
	return parts
}
