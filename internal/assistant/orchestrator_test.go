package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fabiogreco/duet/internal/chat"
	"github.com/fabiogreco/duet/internal/observability"
)

const testAssistantID = "aaaaaaaaaaaaaaaaaaaaaaaa"

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []chat.Message
}

func (d *fakeDeliverer) Deliver(msg chat.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delivered = append(d.delivered, msg)
}

func (d *fakeDeliverer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.delivered)
}

type providerCall struct {
	model   string
	prior   []Turn
	current string
}

// scriptedProvider fails or answers per model name.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[string]string
	errs    map[string]error
	calls   []providerCall
}

func (p *scriptedProvider) Complete(_ context.Context, model string, prior []Turn, current string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, providerCall{model: model, prior: prior, current: current})
	if err, ok := p.errs[model]; ok {
		return "", err
	}
	if reply, ok := p.replies[model]; ok {
		return reply, nil
	}
	return "", errors.New("unscripted model")
}

func (p *scriptedProvider) calledModels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.model
	}
	return out
}

func newTestOrchestrator(t *testing.T, store chat.Store, provider Provider, models ...string) (*Orchestrator, *fakeDeliverer) {
	t.Helper()
	deliver := &fakeDeliverer{}
	model := ""
	var fallbacks []string
	if len(models) > 0 {
		model = models[0]
		fallbacks = models[1:]
	}
	metrics := observability.NewMetrics(fmt.Sprintf("duet_test_assistant_%d", time.Now().UnixNano()))
	o := NewOrchestrator(store, deliver, provider, metrics, OrchestratorConfig{
		AssistantID:    testAssistantID,
		Model:          model,
		FallbackModels: fallbacks,
		HistoryLimit:   20,
	})
	return o, deliver
}

func sendToAssistant(t *testing.T, store chat.Store, text string) chat.Message {
	t.Helper()
	msg, err := store.InsertMessage(context.Background(), chat.Message{
		SenderID:   "user-1",
		ReceiverID: testAssistantID,
		Text:       text,
	})
	if err != nil {
		t.Fatalf("InsertMessage() error = %v", err)
	}
	return msg
}

func TestNotConfiguredNoticeIsEmittedOnce(t *testing.T) {
	store := chat.NewInMemoryStore()
	o, deliver := newTestOrchestrator(t, store, nil)
	ctx := context.Background()

	trigger := sendToAssistant(t, store, "hi")
	outcome, err := o.replyTo(ctx, trigger)
	if err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}
	if outcome != "delivered" {
		t.Fatalf("outcome = %q, want delivered", outcome)
	}

	history, _ := store.Conversation(ctx, "user-1", testAssistantID)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	reply := history[1]
	if reply.SenderID != testAssistantID || reply.ReceiverID != "user-1" {
		t.Fatalf("reply participants wrong: %+v", reply)
	}
	if reply.Text != noticeNotConfigured {
		t.Fatalf("reply text = %q, want the not-configured notice", reply.Text)
	}
	if deliver.count() != 1 {
		t.Fatalf("delivered %d messages, want 1", deliver.count())
	}

	// A second identical user message must not produce a second identical
	// notice.
	trigger2 := sendToAssistant(t, store, "hi")
	outcome, err = o.replyTo(ctx, trigger2)
	if err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}
	if outcome != "suppressed_duplicate" {
		t.Fatalf("second outcome = %q, want suppressed_duplicate", outcome)
	}
	history, _ = store.Conversation(ctx, "user-1", testAssistantID)
	if len(history) != 3 {
		t.Fatalf("history length after suppression = %d, want 3", len(history))
	}
	if deliver.count() != 1 {
		t.Fatalf("delivered %d messages after suppression, want 1", deliver.count())
	}
}

func TestFallbackAdvancesOnModelNotFound(t *testing.T) {
	store := chat.NewInMemoryStore()
	provider := &scriptedProvider{
		errs:    map[string]error{"primary": errors.New("model primary is not found")},
		replies: map[string]string{"backup": "hello from backup"},
	}
	o, _ := newTestOrchestrator(t, store, provider, "primary", "backup")

	trigger := sendToAssistant(t, store, "hi")
	outcome, err := o.replyTo(context.Background(), trigger)
	if err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}
	if outcome != "delivered" {
		t.Fatalf("outcome = %q, want delivered", outcome)
	}

	called := provider.calledModels()
	if len(called) != 2 || called[0] != "primary" || called[1] != "backup" {
		t.Fatalf("called models = %v, want [primary backup]", called)
	}

	history, _ := store.Conversation(context.Background(), "user-1", testAssistantID)
	if history[len(history)-1].Text != "hello from backup" {
		t.Fatalf("reply = %q, want the backup model's completion", history[len(history)-1].Text)
	}
}

func TestFallbackStopsOnQuotaExceeded(t *testing.T) {
	store := chat.NewInMemoryStore()
	provider := &scriptedProvider{
		errs:    map[string]error{"primary": errors.New("you exceeded your current quota")},
		replies: map[string]string{"backup": "should never be asked"},
	}
	o, _ := newTestOrchestrator(t, store, provider, "primary", "backup")

	trigger := sendToAssistant(t, store, "hi")
	if _, err := o.replyTo(context.Background(), trigger); err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}

	if called := provider.calledModels(); len(called) != 1 {
		t.Fatalf("called models = %v, want only the primary", called)
	}
	history, _ := store.Conversation(context.Background(), "user-1", testAssistantID)
	if got := history[len(history)-1].Text; got != NoticeFor(ClassQuotaExceeded) {
		t.Fatalf("reply = %q, want the quota notice", got)
	}
}

func TestExhaustedFallbackEmitsModelNotFoundNotice(t *testing.T) {
	store := chat.NewInMemoryStore()
	provider := &scriptedProvider{
		errs: map[string]error{
			"primary": errors.New("model primary is not found"),
			"backup":  errors.New("model backup is not found"),
		},
	}
	o, _ := newTestOrchestrator(t, store, provider, "primary", "backup")

	trigger := sendToAssistant(t, store, "hi")
	if _, err := o.replyTo(context.Background(), trigger); err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}
	history, _ := store.Conversation(context.Background(), "user-1", testAssistantID)
	if got := history[len(history)-1].Text; got != NoticeFor(ClassModelNotFound) {
		t.Fatalf("reply = %q, want the model-not-found notice", got)
	}
}

func TestHistoryRolesAndPlaceholders(t *testing.T) {
	store := chat.NewInMemoryStore()
	ctx := context.Background()
	base := time.Now().UTC()

	insert := func(sender, receiver, text, attachment string, offset time.Duration) {
		_, err := store.InsertMessage(ctx, chat.Message{
			SenderID:      sender,
			ReceiverID:    receiver,
			Text:          text,
			AttachmentURL: attachment,
			CreatedAt:     base.Add(offset),
		})
		if err != nil {
			t.Fatalf("InsertMessage() error = %v", err)
		}
	}
	insert("user-1", testAssistantID, "first question", "", 0)
	insert(testAssistantID, "user-1", "first answer", "", time.Second)
	insert("user-1", testAssistantID, "", "https://cdn.example/pic.png", 2*time.Second)

	provider := &scriptedProvider{replies: map[string]string{"primary": "ok"}}
	o, _ := newTestOrchestrator(t, store, provider, "primary")

	trigger := chat.Message{SenderID: "user-1", ReceiverID: testAssistantID}
	if _, err := o.replyTo(ctx, trigger); err != nil {
		t.Fatalf("replyTo() error = %v", err)
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.calls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.calls))
	}
	call := provider.calls[0]
	if call.current != placeholderImageOnly {
		t.Fatalf("current input = %q, want the image placeholder", call.current)
	}
	wantPrior := []Turn{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
	}
	if len(call.prior) != len(wantPrior) {
		t.Fatalf("prior turns = %+v, want %+v", call.prior, wantPrior)
	}
	for i, want := range wantPrior {
		if call.prior[i] != want {
			t.Fatalf("prior[%d] = %+v, want %+v", i, call.prior[i], want)
		}
	}
}

func TestTriggerAsyncIgnoresOtherReceivers(t *testing.T) {
	store := chat.NewInMemoryStore()
	o, deliver := newTestOrchestrator(t, store, nil)

	o.TriggerAsync(chat.Message{SenderID: "user-1", ReceiverID: "user-2", Text: "hi"})

	time.Sleep(50 * time.Millisecond)
	if deliver.count() != 0 {
		t.Fatalf("orchestrator replied to a human-to-human message")
	}
}

func TestCandidateModelsDeduplicated(t *testing.T) {
	o, _ := newTestOrchestrator(t, chat.NewInMemoryStore(), nil, "m1", "m2", "m1", "m3")
	got := o.candidateModels()
	want := []string{"m1", "m2", "m3"}
	if len(got) != len(want) {
		t.Fatalf("candidateModels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidateModels() = %v, want %v", got, want)
		}
	}
}
