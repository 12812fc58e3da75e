package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fabiogreco/duet/internal/chat"
	"github.com/fabiogreco/duet/internal/observability"
)

// Placeholders substituted for messages with no usable text when assembling
// the prompt history.
const (
	placeholderImageOnly = "[sent an image]"
	placeholderEmpty     = "[empty message]"
)

// Deliverer pushes a persisted message to live connections.
type Deliverer interface {
	Deliver(msg chat.Message)
}

// Orchestrator generates assistant replies for messages addressed to the
// assistant user. It runs detached from the request that triggered it: its
// failures are logged and converted to notice replies, never surfaced to the
// sender's request.
type Orchestrator struct {
	store    chat.Store
	deliver  Deliverer
	provider Provider // nil when no API key is configured
	metrics  *observability.Metrics

	assistantID  string
	model        string
	fallbacks    []string
	historyLimit int
}

type OrchestratorConfig struct {
	AssistantID    string
	Model          string
	FallbackModels []string
	HistoryLimit   int
}

func NewOrchestrator(store chat.Store, deliver Deliverer, provider Provider, metrics *observability.Metrics, cfg OrchestratorConfig) *Orchestrator {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &Orchestrator{
		store:        store,
		deliver:      deliver,
		provider:     provider,
		metrics:      metrics,
		assistantID:  cfg.AssistantID,
		model:        cfg.Model,
		fallbacks:    cfg.FallbackModels,
		historyLimit: cfg.HistoryLimit,
	}
}

// HandlesReceiver reports whether a message to receiverID should trigger an
// assistant reply.
func (o *Orchestrator) HandlesReceiver(receiverID string) bool {
	return o != nil && o.assistantID != "" && receiverID == o.assistantID
}

// TriggerAsync starts a detached reply pipeline for trigger. Concurrent
// triggers for the same user are not serialized; the duplicate-reply guard is
// the only defense against compounding redundant replies.
func (o *Orchestrator) TriggerAsync(trigger chat.Message) {
	if !o.HandlesReceiver(trigger.ReceiverID) {
		return
	}
	go func() {
		outcome, err := o.replyTo(context.Background(), trigger)
		o.metrics.AssistantReplies.WithLabelValues(outcome).Inc()
		if err != nil {
			log.Printf("assistant: reply to %s failed: %v", trigger.SenderID, err)
		}
	}()
}

func (o *Orchestrator) replyTo(ctx context.Context, trigger chat.Message) (string, error) {
	history, err := o.store.RecentConversation(ctx, trigger.SenderID, o.assistantID, o.historyLimit)
	if err != nil {
		return "failed", fmt.Errorf("load history: %w", err)
	}
	turns := o.assembleTurns(history)

	var replyText string
	if o.provider == nil {
		replyText = noticeNotConfigured
	} else {
		replyText = o.generate(ctx, turns)
	}

	// Suppress a reply identical to the previous assistant turn; without
	// this, a persistent misconfiguration would repeat the same notice after
	// every user message.
	if last, ok := lastAssistantText(history, o.assistantID); ok && last == strings.TrimSpace(replyText) {
		log.Printf("assistant: suppressing duplicate reply to %s", trigger.SenderID)
		return "suppressed_duplicate", nil
	}

	reply, err := o.store.InsertMessage(ctx, chat.Message{
		SenderID:   o.assistantID,
		ReceiverID: trigger.SenderID,
		Text:       replyText,
	})
	if err != nil {
		return "failed", fmt.Errorf("persist reply: %w", err)
	}
	o.deliver.Deliver(reply)
	return "delivered", nil
}

// assembleTurns maps stored messages onto provider turns, oldest first. The
// role is derived from the sender, never stored.
func (o *Orchestrator) assembleTurns(history []chat.Message) []Turn {
	turns := make([]Turn, 0, len(history))
	for _, m := range history {
		role := RoleUser
		if m.SenderID == o.assistantID {
			role = RoleAssistant
		}
		turns = append(turns, Turn{Role: role, Content: promptContent(m)})
	}
	return turns
}

func promptContent(m chat.Message) string {
	if text := strings.TrimSpace(m.Text); text != "" {
		return text
	}
	if m.AttachmentURL != "" {
		return placeholderImageOnly
	}
	return placeholderEmpty
}

// generate runs the model-fallback loop and always produces a reply text:
// the provider's completion on success, a fixed notice otherwise.
func (o *Orchestrator) generate(ctx context.Context, turns []Turn) string {
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		log.Printf("assistant: no current user turn to answer")
		return NoticeFor(ClassUnknown)
	}
	prior := turns[:len(turns)-1]
	current := turns[len(turns)-1].Content

	lastClass := ClassUnknown
	for _, model := range o.candidateModels() {
		start := time.Now()
		text, err := o.provider.Complete(ctx, model, prior, current)
		o.metrics.ObserveProviderLatency(time.Since(start))
		if err == nil {
			return text
		}

		lastClass = Classify(err)
		o.metrics.ProviderErrors.WithLabelValues(string(lastClass)).Inc()
		log.Printf("assistant: model %s failed (%s): %v", model, lastClass, err)
		if !lastClass.ContinuesFallback() {
			return NoticeFor(lastClass)
		}
	}
	// Every candidate was unavailable.
	return NoticeFor(lastClass)
}

// candidateModels returns the configured model first, then the fallback list
// with duplicates removed.
func (o *Orchestrator) candidateModels() []string {
	models := make([]string, 0, len(o.fallbacks)+1)
	seen := make(map[string]bool)
	for _, m := range append([]string{o.model}, o.fallbacks...) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}
	return models
}

func lastAssistantText(history []chat.Message, assistantID string) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].SenderID == assistantID {
			return strings.TrimSpace(history[i].Text), true
		}
	}
	return "", false
}
