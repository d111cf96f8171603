package widget

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/voxkit/assistant-widget/consent"
)

// Phase is the top-level state of the widget.
type Phase string

const (
	// PhaseCollapsed is the floating button, panel closed.
	PhaseCollapsed Phase = "collapsed"
	// PhaseAwaitingConsent shows only the consent prompt; no channel
	// operation may start from here.
	PhaseAwaitingConsent Phase = "awaiting-consent"
	// PhaseIdle is the expanded panel with no operation in flight.
	PhaseIdle Phase = "idle"
	// PhaseVoiceActive covers the whole call lifetime, connecting
	// included.
	PhaseVoiceActive Phase = "voice-active"
	// PhaseChatSending covers an outstanding chat send.
	PhaseChatSending Phase = "chat-sending"
)

// Channel is the active interaction channel in hybrid operation.
type Channel string

const (
	ChannelVoice Channel = "voice"
	ChannelChat  Channel = "chat"
)

// State is a point-in-time snapshot of everything the presentation
// layer renders.
type State struct {
	Phase      Phase
	Mode       Mode
	Channel    Channel
	CallStatus CallStatus
	ChatStatus ChatStatus
	Volume     float64
	Messages   []Message
}

// Widget composes the voice session, the chat session, the consent gate
// and the conversation history into one state machine. Only one
// operation is ever active at a time, hybrid mode included; the two
// channels never run concurrently.
//
// All methods are safe for concurrent use. Asynchronous completions
// carry a generation number, so a completion arriving after a close,
// reset or stop is discarded rather than applied.
type Widget struct {
	cfg   Config
	log   logrus.FieldLogger
	store consent.Store

	voice *VoiceSession
	chat  *ChatSession

	mu      sync.Mutex
	phase   Phase
	channel Channel
	history History
	tb      transcriptBuffer
	volume  float64
	gen     uint64
}

// Option adjusts widget construction.
type Option func(*Widget)

// WithLogger injects the logger. The default is the process-wide logrus
// standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(w *Widget) { w.log = log }
}

// WithHooks attaches notification hooks. This is how hooks reach a
// widget built from a serialized configuration blob, which cannot carry
// function values.
func WithHooks(hooks Hooks) Option {
	return func(w *Widget) { w.cfg.Hooks = hooks }
}

// WithConsentStore replaces the default file-backed consent store.
func WithConsentStore(store consent.Store) Option {
	return func(w *Widget) { w.store = store }
}

// WithVoiceClient replaces the realtime voice client.
func WithVoiceClient(client VoiceClient) Option {
	return func(w *Widget) { w.voice = NewVoiceSession(client, w.log) }
}

// WithChatBackend replaces the chat backend chosen from configuration.
func WithChatBackend(backend ChatBackend) Option {
	return func(w *Widget) { w.chat = NewChatSession(backend, w.cfg.ChatTimeout, w.log) }
}

// New creates a collapsed widget from cfg. The zero defaults are voice
// mode, bottom-right, full size, light theme.
func New(cfg Config, opts ...Option) (*Widget, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &Widget{
		cfg:     cfg,
		log:     logrus.StandardLogger(),
		phase:   PhaseCollapsed,
		channel: defaultChannel(cfg.Mode),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.store == nil {
		store, err := consent.NewFileStore("")
		if err != nil {
			return nil, errorf(KindConfiguration, "config", "consent store: %v", err)
		}
		w.store = store
	}
	if w.voice == nil {
		w.voice = NewVoiceSession(newRealtimeVoiceClient(cfg, w.log), w.log)
	}
	if w.chat == nil {
		w.chat = NewChatSession(defaultChatBackend(cfg, w.log), cfg.ChatTimeout, w.log)
	}
	return w, nil
}

func defaultChannel(mode Mode) Channel {
	if mode == ModeChat {
		return ChannelChat
	}
	return ChannelVoice
}

// Config returns a copy of the construction-time configuration.
func (w *Widget) Config() Config {
	return w.cfg
}

// State returns a snapshot of the rendered state.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		Phase:      w.phase,
		Mode:       w.cfg.Mode,
		Channel:    w.channel,
		CallStatus: w.voice.Status(),
		ChatStatus: w.chat.Status(),
		Volume:     w.volume,
		Messages:   w.history.Snapshot(),
	}
}

// Phase returns the current top-level state.
func (w *Widget) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Messages returns the transcript in append order.
func (w *Widget) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.history.Snapshot()
}

// Open expands the collapsed widget. When consent is required and not
// yet granted — undecided and declined both count — the widget lands on
// the consent prompt instead of the idle panel. Opening an already
// expanded widget is a no-op.
func (w *Widget) Open(ctx context.Context) error {
	gate := false
	if w.cfg.RequireConsent {
		decision, err := w.store.Get(ctx, w.cfg.StorageKey)
		if err != nil {
			// Fail closed: ask again rather than skipping the prompt.
			w.log.WithError(err).Warn("consent lookup failed")
			gate = true
		} else {
			gate = decision != consent.Granted
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseCollapsed {
		return nil
	}
	if gate {
		w.phase = PhaseAwaitingConsent
	} else {
		w.phase = PhaseIdle
	}
	return nil
}

// GrantConsent records the user's opt-in and moves to the idle panel.
// The grant is persisted before the transition; a persist failure keeps
// the prompt up.
func (w *Widget) GrantConsent(ctx context.Context) error {
	w.mu.Lock()
	if w.phase != PhaseAwaitingConsent {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if err := w.store.Set(ctx, w.cfg.StorageKey, true); err != nil {
		return normalizeError("consent.grant", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseAwaitingConsent {
		w.phase = PhaseIdle
	}
	return nil
}

// DeclineConsent collapses the widget. Nothing is persisted; the prompt
// returns on the next open.
func (w *Widget) DeclineConsent() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase == PhaseAwaitingConsent {
		w.phase = PhaseCollapsed
	}
}

// StartVoice begins a voice call. Valid only from the idle panel in
// voice or hybrid mode. The call is established asynchronously:
// OnCallStart fires once connected, failures surface through OnError
// and return the widget to idle.
func (w *Widget) StartVoice(ctx context.Context) error {
	const op = "voice.start"

	w.mu.Lock()
	if w.cfg.Mode == ModeChat {
		w.mu.Unlock()
		return errorf(KindConfiguration, op, "voice is unavailable in chat mode")
	}
	if w.phase != PhaseIdle {
		w.mu.Unlock()
		return errorf(KindBusy, op, "widget is %s", w.phase)
	}
	w.phase = PhaseVoiceActive
	w.channel = ChannelVoice
	gen := w.gen
	w.mu.Unlock()

	go w.runVoice(ctx, gen)
	return nil
}

func (w *Widget) runVoice(ctx context.Context, gen uint64) {
	events, err := w.voice.Start(ctx, CallConfig{
		AssistantID:        w.cfg.AssistantID,
		Assistant:          w.cfg.Assistant,
		AssistantOverrides: w.cfg.AssistantOverrides,
	})
	if err != nil {
		w.failOperation(gen, "voice.start", err)
		return
	}

	w.mu.Lock()
	if gen != w.gen || w.phase != PhaseVoiceActive {
		// Closed or reset while connecting.
		w.mu.Unlock()
		w.voice.Stop()
		return
	}
	w.mu.Unlock()

	if h := w.cfg.Hooks.OnCallStart; h != nil {
		h()
	}
	w.pumpVoice(gen, events)
}

func (w *Widget) pumpVoice(gen uint64, events <-chan CallEvent) {
	for ev := range events {
		w.handleVoiceEvent(gen, ev)
	}
	// Channel closed without an explicit end frame: treat as ended.
	w.handleVoiceEvent(gen, CallEvent{Type: EventCallEnded})
}

func (w *Widget) handleVoiceEvent(gen uint64, ev CallEvent) {
	var after []func()

	w.mu.Lock()
	if gen != w.gen || w.phase != PhaseVoiceActive {
		w.mu.Unlock()
		return
	}

	switch ev.Type {
	case EventCallStarted:
		w.log.Debug("call started")

	case EventVolume:
		w.volume = ev.Volume

	case EventTranscript:
		for _, u := range w.tb.Add(ev.Role, ev.Text, ev.Final) {
			msg := newMessage(u.Role, SourceVoice, u.Text)
			w.history.Append(msg)
			if h := w.cfg.Hooks.OnMessage; h != nil {
				m := msg
				after = append(after, func() { h(m) })
			}
		}

	case EventCallEnded:
		if u, ok := w.tb.Flush(); ok {
			msg := newMessage(u.Role, SourceVoice, u.Text)
			w.history.Append(msg)
			if h := w.cfg.Hooks.OnMessage; h != nil {
				m := msg
				after = append(after, func() { h(m) })
			}
		}
		w.gen++
		w.phase = PhaseIdle
		w.volume = 0
		after = append(after, func() {
			w.voice.finish(false)
			if h := w.cfg.Hooks.OnCallEnd; h != nil {
				h()
			}
		})

	case EventCallError:
		// The transcript buffer is dropped: no message is appended for
		// a failed call fragment.
		w.tb = transcriptBuffer{}
		w.gen++
		w.phase = PhaseIdle
		w.volume = 0
		werr := normalizeError("voice.call", ev.Err)
		after = append(after, func() {
			w.voice.finish(true)
			if h := w.cfg.Hooks.OnError; h != nil {
				h(werr)
			}
		})
	}
	w.mu.Unlock()

	for _, fn := range after {
		fn()
	}
}

// EndVoice hangs up the active call. Pending partial transcript is
// finalized into the history. A no-op outside a call.
func (w *Widget) EndVoice() {
	var after []func()

	w.mu.Lock()
	if w.phase != PhaseVoiceActive {
		w.mu.Unlock()
		return
	}
	if u, ok := w.tb.Flush(); ok {
		msg := newMessage(u.Role, SourceVoice, u.Text)
		w.history.Append(msg)
		if h := w.cfg.Hooks.OnMessage; h != nil {
			m := msg
			after = append(after, func() { h(m) })
		}
	}
	w.gen++
	w.phase = PhaseIdle
	w.volume = 0
	w.mu.Unlock()

	w.voice.Stop()
	for _, fn := range after {
		fn()
	}
	if h := w.cfg.Hooks.OnCallEnd; h != nil {
		h()
	}
}

// SendChat delivers a user message. Valid only from the idle panel in
// chat or hybrid mode. The user message is appended immediately; the
// assistant reply is appended asynchronously when it arrives, or the
// failure surfaces through OnError. Either way the widget returns to
// idle. Whitespace-only input is ignored.
func (w *Widget) SendChat(ctx context.Context, text string) error {
	const op = "chat.send"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	w.mu.Lock()
	if w.cfg.Mode == ModeVoice {
		w.mu.Unlock()
		return errorf(KindConfiguration, op, "chat is unavailable in voice mode")
	}
	if w.phase != PhaseIdle {
		w.mu.Unlock()
		return errorf(KindBusy, op, "widget is %s", w.phase)
	}
	prior := w.history.Snapshot()
	msg := newMessage(RoleUser, SourceChat, text)
	w.history.Append(msg)
	w.phase = PhaseChatSending
	w.channel = ChannelChat
	gen := w.gen
	w.mu.Unlock()

	if h := w.cfg.Hooks.OnMessage; h != nil {
		h(msg)
	}

	go w.completeChat(ctx, gen, text, prior)
	return nil
}

func (w *Widget) completeChat(ctx context.Context, gen uint64, text string, prior []Message) {
	reply, err := w.chat.Send(ctx, text, prior)
	if err != nil {
		// The user message stays in the history; only the reply is
		// missing.
		w.failOperation(gen, "chat.send", err)
		return
	}

	w.mu.Lock()
	if gen != w.gen || w.phase != PhaseChatSending {
		// Closed or reset while waiting: the late reply is discarded.
		w.mu.Unlock()
		return
	}
	msg := newMessage(RoleAssistant, SourceChat, reply)
	w.history.Append(msg)
	w.phase = PhaseIdle
	w.mu.Unlock()

	if h := w.cfg.Hooks.OnMessage; h != nil {
		h(msg)
	}
}

// failOperation normalizes err, returns the machine to idle and fires
// OnError exactly once — unless the operation was already superseded by
// a close or reset, in which case the failure is dropped silently.
func (w *Widget) failOperation(gen uint64, op string, err error) {
	werr := normalizeError(op, err)

	w.mu.Lock()
	if gen != w.gen || (w.phase != PhaseVoiceActive && w.phase != PhaseChatSending) {
		w.mu.Unlock()
		return
	}
	w.gen++
	w.phase = PhaseIdle
	w.volume = 0
	w.tb = transcriptBuffer{}
	w.mu.Unlock()

	w.log.WithError(werr).Warn("operation failed")
	if h := w.cfg.Hooks.OnError; h != nil {
		h(werr)
	}
}

// SwitchChannel flips the active channel in hybrid operation, from the
// idle panel only. The conversation does not survive a switch: the
// history is cleared. This loss is a documented limitation of hybrid
// mode, not an accident.
func (w *Widget) SwitchChannel(ch Channel) error {
	const op = "switch"

	if ch != ChannelVoice && ch != ChannelChat {
		return errorf(KindConfiguration, op, "unknown channel %q", ch)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cfg.Mode != ModeHybrid {
		return errorf(KindConfiguration, op, "channel switching requires hybrid mode")
	}
	if w.phase != PhaseIdle {
		return errorf(KindBusy, op, "widget is %s", w.phase)
	}
	if ch == w.channel {
		return nil
	}
	w.channel = ch
	w.history.Clear()
	w.tb = transcriptBuffer{}
	return nil
}

// Reset clears the conversation and lands on the idle panel. An active
// call is stopped first; an outstanding chat reply is discarded when it
// arrives. Reset does not bypass the consent prompt, and a collapsed
// widget is left alone.
func (w *Widget) Reset() {
	w.mu.Lock()
	if w.phase == PhaseCollapsed || w.phase == PhaseAwaitingConsent {
		w.mu.Unlock()
		return
	}
	stopVoice := w.phase == PhaseVoiceActive
	w.gen++
	w.phase = PhaseIdle
	w.history.Clear()
	w.tb = transcriptBuffer{}
	w.volume = 0
	w.mu.Unlock()

	if stopVoice {
		w.voice.Stop()
	}
}

// Close collapses the widget, stopping any active call. Results of
// operations still in flight are discarded when they complete. The
// history survives a close; only reset and channel switches clear it.
func (w *Widget) Close() {
	w.mu.Lock()
	if w.phase == PhaseCollapsed {
		w.mu.Unlock()
		return
	}
	stopVoice := w.phase == PhaseVoiceActive
	w.gen++
	w.phase = PhaseCollapsed
	w.tb = transcriptBuffer{}
	w.volume = 0
	w.mu.Unlock()

	if stopVoice {
		w.voice.Stop()
	}
}
