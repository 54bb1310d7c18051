// Package widget is the headless core of the embeddable chat widget: it
// fetches the agency display name, keeps the transcript, relays messages to
// the chat endpoint and renders the panel as HTML.
package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"luxury-leads-backend/internal/types"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Texts shown when no usable reply arrived.
const (
	PlaceholderNoResponse  = "No response"
	PlaceholderServerError = "Server error"
)

// KeyEnter commits the input field.
const KeyEnter = "Enter"

// Message is one transcript entry. Seq is the submission it belongs to.
// Failed marks placeholders for transport failures and backend-reported
// errors so they can be told apart from genuine replies.
type Message struct {
	Seq    uint64 `json:"seq"`
	Text   string `json:"text"`
	Sender Sender `json:"sender"`
	Failed bool   `json:"failed,omitempty"`
}

// AgencyInfo holds the labels shown in the panel header and bubbles.
type AgencyInfo struct {
	AgencyName    string
	AssistantName string
}

// Widget is one isolated widget instance bound to one agency.
//
// Listeners registered with OnAppend run in transcript order, outside the
// widget lock; they may read the widget but must not submit messages.
type Widget struct {
	id     string
	opts   Options
	client *Client

	initOnce sync.Once
	inflight sync.WaitGroup

	mu         sync.Mutex
	info       AgencyInfo
	visible    bool
	input      string
	transcript []Message
	lastSeq    uint64
	nextReply  uint64
	held       map[uint64]Message
	pending    int
	listeners  []func(Message)
	// delivery tickets keep listener calls in append order
	issued    uint64
	delivered uint64
	deliverMu sync.Mutex
	turn      *sync.Cond
}

// New builds a widget from opts. The panel is usable immediately; Init
// replaces the default labels with the agency's.
func New(opts Options) *Widget {
	opts = opts.withDefaults()
	w := &Widget{
		id:     "lw-" + uuid.NewString(),
		opts:   opts,
		client: NewClient(opts.BaseURL, opts.HTTPClient),
		info: AgencyInfo{
			AgencyName:    opts.DefaultAgencyName,
			AssistantName: opts.DefaultAssistantName,
		},
		visible:   opts.Layout == LayoutInline,
		nextReply: 1,
		held:      make(map[uint64]Message),
	}
	w.turn = sync.NewCond(&w.deliverMu)
	return w
}

func (w *Widget) ID() string { return w.id }

func (w *Widget) Options() Options { return w.opts }

// Init fetches the agency labels once. Any failure keeps the defaults; it
// is never reported.
func (w *Widget) Init(ctx context.Context) AgencyInfo {
	w.initOnce.Do(func() {
		ctx, cancel := w.requestContext(ctx)
		defer cancel()
		fetched, err := w.client.AgencyInfo(ctx, w.opts.AgencyID)
		if err != nil {
			return
		}
		w.mu.Lock()
		defer w.mu.Unlock()
		if fetched.Name != "" {
			w.info.AgencyName = fetched.Name
		}
		if fetched.Assistant != "" {
			w.info.AssistantName = fetched.Assistant
		}
	})
	return w.Info()
}

func (w *Widget) Info() AgencyInfo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info
}

// Toggle flips panel visibility and returns the new state.
func (w *Widget) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = !w.visible
	return w.visible
}

func (w *Widget) Open() {
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
}

func (w *Widget) Close() {
	w.mu.Lock()
	w.visible = false
	w.mu.Unlock()
}

func (w *Widget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *Widget) SetInput(s string) {
	w.mu.Lock()
	w.input = s
	w.mu.Unlock()
}

func (w *Widget) Input() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.input
}

// OnAppend registers fn to be called with every message added to the
// transcript.
func (w *Widget) OnAppend(fn func(Message)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// PressKey handles a key press in the input field. Enter with submittable
// input clears the field, appends the user message and sends it in the
// background; the returned sequence identifies the submission.
func (w *Widget) PressKey(key string) (uint64, bool) {
	if key != KeyEnter {
		return 0, false
	}
	w.mu.Lock()
	text := w.input
	if !w.opts.AllowEmpty {
		// blank input is ignored; AllowEmpty sends the raw value
		text = strings.TrimSpace(text)
		if text == "" {
			w.mu.Unlock()
			return 0, false
		}
	}
	w.input = ""
	w.lastSeq++
	seq := w.lastSeq
	w.pending++
	w.inflight.Add(1)
	w.commitLocked([]Message{{Seq: seq, Text: text, Sender: SenderUser}})

	go w.exchange(seq, text)
	return seq, true
}

// Submit types text into the input field and presses Enter.
func (w *Widget) Submit(text string) (uint64, bool) {
	w.SetInput(text)
	return w.PressKey(KeyEnter)
}

// Transcript returns a copy of the visible messages.
func (w *Widget) Transcript() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Message, len(w.transcript))
	copy(out, w.transcript)
	return out
}

// Pending reports submissions whose reply has not been appended yet.
func (w *Widget) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pending
}

// Wait blocks until every submission so far has its reply in the transcript.
func (w *Widget) Wait() {
	w.inflight.Wait()
}

func (w *Widget) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if w.opts.RequestTimeout > 0 {
		return context.WithTimeout(parent, w.opts.RequestTimeout)
	}
	return context.WithCancel(parent)
}

func (w *Widget) exchange(seq uint64, text string) {
	defer w.inflight.Done()
	ctx, cancel := w.requestContext(context.Background())
	defer cancel()

	reply, err := w.client.Chat(ctx, types.ChatRequest{Message: text, AgencyID: types.AgencyID(w.opts.AgencyID)})
	body, failed := ResolveReply(reply, err, w.opts.ShowBackendErrors)
	w.deliverReply(Message{Seq: seq, Text: body, Sender: SenderAI, Failed: failed})
}

// ResolveReply picks the text to display for a chat exchange. Any error,
// including a non-2xx status, shows the server error placeholder.
func ResolveReply(reply types.ChatReply, err error, showBackendErrors bool) (string, bool) {
	if err != nil {
		return PlaceholderServerError, true
	}
	if reply.Reply != "" {
		return reply.Reply, false
	}
	if showBackendErrors && reply.Error != "" {
		return reply.Error, true
	}
	return PlaceholderNoResponse, false
}

func (w *Widget) deliverReply(msg Message) {
	w.mu.Lock()
	if w.opts.Ordering == OrderArrival {
		w.pending--
		w.commitLocked([]Message{msg})
		return
	}
	w.held[msg.Seq] = msg
	var ready []Message
	for {
		m, ok := w.held[w.nextReply]
		if !ok {
			break
		}
		ready = append(ready, m)
		delete(w.held, w.nextReply)
		w.nextReply++
	}
	w.pending -= len(ready)
	w.commitLocked(ready)
}

// commitLocked appends msgs, releases w.mu and notifies listeners in order.
func (w *Widget) commitLocked(msgs []Message) {
	if len(msgs) == 0 {
		w.mu.Unlock()
		return
	}
	w.transcript = append(w.transcript, msgs...)
	listeners := append([]func(Message){}, w.listeners...)
	w.issued++
	ticket := w.issued
	w.mu.Unlock()

	w.deliverMu.Lock()
	for w.delivered+1 != ticket {
		w.turn.Wait()
	}
	w.deliverMu.Unlock()

	for _, m := range msgs {
		for _, fn := range listeners {
			fn(m)
		}
	}

	w.deliverMu.Lock()
	w.delivered = ticket
	w.turn.Broadcast()
	w.deliverMu.Unlock()
}

// View captures the current render state.
func (w *Widget) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	transcript := make([]Message, len(w.transcript))
	copy(transcript, w.transcript)
	return View{
		ID:         w.id,
		Options:    w.opts,
		Info:       w.info,
		Visible:    w.visible,
		Input:      w.input,
		Transcript: transcript,
	}
}

// Render returns the widget's current HTML.
func (w *Widget) Render() (string, error) {
	return Render(w.View())
}
