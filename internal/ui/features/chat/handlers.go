package chat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/querychat/internal/insight"
	"github.com/leapstack-labs/querychat/internal/provider"
	"github.com/leapstack-labs/querychat/internal/source"
	"github.com/leapstack-labs/querychat/internal/state"
	"github.com/leapstack-labs/querychat/internal/ui/features/common"
	"github.com/leapstack-labs/querychat/internal/ui/notifier"
)

const (
	cookieName   = "querychat"
	askTimeout   = 120 * time.Second
	titleMaxLen  = 48
	defaultTitle = "New chat"
)

// Handlers provides the chat feature's HTTP handlers.
type Handlers struct {
	store        state.Store
	sources      *source.Registry
	providers    *provider.Registry
	presets      func() []provider.Preset
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	store state.Store,
	sources *source.Registry,
	providers *provider.Registry,
	presets func() []provider.Preset,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		store:        store,
		sources:      sources,
		providers:    providers,
		presets:      presets,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		isDev:        isDev,
	}
}

// ChatPage renders the page shell; content arrives over /sse.
func (h *Handlers) ChatPage(w http.ResponseWriter, r *http.Request) {
	err := common.RenderPage(w, common.PageData{
		Title:       "Chat",
		CurrentPath: "/",
		SSEPath:     "/sse",
		IsDev:       h.isDev,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ChatSSE sends the full chat view for the current session.
func (h *Handlers) ChatSSE(w http.ResponseWriter, r *http.Request) {
	// Resolve the session BEFORE starting the stream: a fresh session
	// sets a cookie, and headers cannot follow the first SSE write.
	sess, err := h.currentSession(w, r)

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	html, err := h.renderChatView(sess)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// AskSSE runs the full ask pipeline: persist the question, generate SQL,
// execute it, analyze the results, and stream back the rendered answer.
func (h *Handlers) AskSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals AskSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("failed to read signals: %w", err))
		return
	}

	question := strings.TrimSpace(signals.Question)
	if question == "" {
		sse := datastar.NewSSE(w, r)
		_ = sse.ConsoleError(fmt.Errorf("question cannot be empty"))
		return
	}

	// Session resolution may set a cookie, so it happens before the
	// stream opens.
	sess, err := h.currentSession(w, r)

	sse := datastar.NewSSE(w, r)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}

	userMsg, err := h.store.AppendMessage(sess.ID, state.RoleUser, question, "", "")
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	h.appendMessage(sse, MessageView{ID: userMsg.ID, Role: state.RoleUser, Content: question})
	h.setStatus(sse, true, "Generating SQL...")
	h.maybeRetitle(sess, question)

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	answer, err := h.ask(ctx, sse, sess, signals, question)
	if err != nil {
		h.logger.Warn("ask failed", "session", sess.ID, "error", err)
		errMsg, serr := h.store.AppendMessage(sess.ID, state.RoleAssistant, "", "", err.Error())
		if serr != nil {
			h.logger.Error("failed to persist error message", "error", serr)
			errMsg = &state.Message{ID: "err"}
		}
		h.appendMessage(sse, MessageView{ID: errMsg.ID, Role: state.RoleAssistant, Error: err.Error()})
	} else {
		h.appendMessage(sse, *answer)
	}

	h.setStatus(sse, false, "")
	if h.notifier != nil {
		h.notifier.Broadcast()
	}
}

// ask runs generation, execution and analysis, returning the rendered
// assistant message.
func (h *Handlers) ask(
	ctx context.Context,
	sse *datastar.ServerSentEventGenerator,
	sess *state.Session,
	signals AskSignals,
	question string,
) (*MessageView, error) {
	preset, err := h.resolvePreset(signals.Preset, sess)
	if err != nil {
		return nil, err
	}
	prov, err := h.providers.Get(preset.Provider)
	if err != nil {
		return nil, err
	}
	src, err := h.sources.Get(firstNonEmpty(signals.Source, sess.Source))
	if err != nil {
		return nil, err
	}

	tables, err := src.DescribeSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe schema: %w", err)
	}

	reply, err := prov.Chat(ctx, provider.ChatRequest{
		Model: preset.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: provider.SQLSystemPrompt(src.Dialect(), source.SchemaText(tables))},
			{Role: provider.RoleUser, Content: question},
		},
		Temperature: preset.Temperature,
		MaxTokens:   preset.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("sql generation failed: %w", err)
	}

	sql, ok := provider.ExtractSQL(reply.Content)
	if !ok {
		return nil, fmt.Errorf("model did not return a SQL query: %s", reply.Content)
	}

	h.setStatus(sse, true, "Running query...")
	result, err := src.Query(ctx, sql)
	if err != nil {
		// Keep the failed SQL in the transcript so the user can see
		// what ran and refine the question.
		errText := fmt.Sprintf("query failed: %v", err)
		msg, serr := h.store.AppendMessage(sess.ID, state.RoleAssistant, "", sql, errText)
		if serr != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		return &MessageView{ID: msg.ID, Role: state.RoleAssistant, SQL: sql, Error: errText}, nil
	}

	h.setStatus(sse, true, "Analyzing results...")
	report := insight.Analyze(result.Set)
	view := common.BuildResultView(report, result.Set, result.Duration.Milliseconds(), result.Truncated)
	resultHTML, err := common.RenderResult(view)
	if err != nil {
		return nil, err
	}

	answer := h.summarizeAnswer(ctx, prov, preset, question, sql, report, result.Set)

	msg, err := h.store.AppendMessage(sess.ID, state.RoleAssistant, answer, sql, "")
	if err != nil {
		return nil, fmt.Errorf("failed to persist answer: %w", err)
	}
	if _, err := h.store.RecordQuery(sess.ID, sql, report.RowCount,
		result.Duration.Milliseconds(), report.Visualization.Kind.String()); err != nil {
		h.logger.Warn("failed to record query", "error", err)
	}
	if err := h.store.TouchSession(sess.ID); err != nil {
		h.logger.Warn("failed to touch session", "error", err)
	}

	return &MessageView{
		ID:         msg.ID,
		Role:       state.RoleAssistant,
		Content:    answer,
		SQL:        sql,
		ResultHTML: resultHTML,
	}, nil
}

// summarizeAnswer asks the model for a short narrative. A failed call
// degrades to a canned line; the results are already on screen.
func (h *Handlers) summarizeAnswer(
	ctx context.Context,
	prov provider.Provider,
	preset provider.Preset,
	question, sql string,
	report insight.Report,
	rs *insight.ResultSet,
) string {
	fallback := fmt.Sprintf("The query returned %d rows.", report.RowCount)

	summary := SummarizeReport(report)
	if report.RowCount > 0 {
		summary += "\n\nSample rows:\n" + SummarizeRows(rs, report)
	}

	reply, err := prov.Chat(ctx, provider.ChatRequest{
		Model: preset.Model,
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: provider.AnswerSystemPrompt},
			{Role: provider.RoleUser, Content: provider.AnswerUserPrompt(question, sql, summary)},
		},
		Temperature: preset.Temperature,
	})
	if err != nil {
		h.logger.Warn("answer summarization failed", "error", err)
		return fallback
	}
	answer := strings.TrimSpace(reply.Content)
	if answer == "" {
		return fallback
	}
	return answer
}

func (h *Handlers) resolvePreset(name string, sess *state.Session) (provider.Preset, error) {
	presets := h.presets()
	if name == "" {
		if p, ok := findSessionPreset(presets, sess); ok {
			return p, nil
		}
		if len(presets) == 0 {
			return provider.Preset{}, fmt.Errorf("no presets configured")
		}
		return presets[0], nil
	}
	p, ok := provider.FindPreset(presets, name)
	if !ok {
		return provider.Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

func findSessionPreset(presets []provider.Preset, sess *state.Session) (provider.Preset, bool) {
	if sess.Provider == "" {
		return provider.Preset{}, false
	}
	for _, p := range presets {
		if p.Provider == sess.Provider && p.Model == sess.Model {
			return p, true
		}
	}
	return provider.Preset{}, false
}

func (h *Handlers) maybeRetitle(sess *state.Session, question string) {
	if sess.Title != defaultTitle {
		return
	}
	title := question
	if len(title) > titleMaxLen {
		title = title[:titleMaxLen]
	}
	if err := h.store.RenameSession(sess.ID, title); err != nil {
		h.logger.Warn("failed to retitle session", "error", err)
	}
}

func (h *Handlers) appendMessage(sse *datastar.ServerSentEventGenerator, view MessageView) {
	html, err := renderFragment("chat-message", view)
	if err != nil {
		_ = sse.ConsoleError(err)
		return
	}
	if err := sse.PatchElements(html,
		datastar.WithSelectorID("messages"),
		datastar.WithModeAppend()); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) setStatus(sse *datastar.ServerSentEventGenerator, asking bool, status string) {
	if err := sse.MarshalAndPatchSignals(map[string]any{
		"asking":   asking,
		"status":   status,
		"question": "",
	}); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) renderChatView(sess *state.Session) (string, error) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		return "", err
	}

	data := ViewData{SessionID: sess.ID}
	for _, s := range sessions {
		data.Sessions = append(data.Sessions, SessionItem{
			ID:      s.ID,
			Title:   s.Title,
			Current: s.ID == sess.ID,
		})
	}

	messages, err := h.store.ListMessages(sess.ID)
	if err != nil {
		return "", err
	}
	for _, m := range messages {
		data.Messages = append(data.Messages, MessageView{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			SQL:       m.SQL,
			Error:     m.Error,
			CreatedAt: m.CreatedAt,
		})
	}

	for _, p := range h.presets() {
		data.Presets = append(data.Presets, p.Name)
	}
	if len(data.Presets) > 0 {
		data.Preset = data.Presets[0]
	}
	data.Sources = h.sources.Names()
	if sess.Source != "" {
		data.Source = sess.Source
	} else if len(data.Sources) > 0 {
		data.Source = data.Sources[0]
	}

	return renderFragment("chat-view", data)
}

// currentSession resolves the chat session from the cookie, creating a
// fresh one when absent or stale.
func (h *Handlers) currentSession(w http.ResponseWriter, r *http.Request) (*state.Session, error) {
	cookie, _ := h.sessionStore.Get(r, cookieName)

	if id, ok := cookie.Values["session_id"].(string); ok && id != "" {
		if sess, err := h.store.GetSession(id); err == nil {
			return sess, nil
		}
	}

	sess, err := h.store.CreateSession(defaultTitle, "", "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	cookie.Values["session_id"] = sess.ID
	if err := cookie.Save(r, w); err != nil {
		h.logger.Warn("failed to save session cookie", "error", err)
	}
	return sess, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
