// Package widget is an embeddable conversational-assistant widget core.
// It composes a voice session, a chat session, a consent gate and the
// conversation history into one state machine that a presentation layer
// renders. The package holds no rendering code of its own: embedders
// observe State and drive the controller from user input.
package widget

import (
	"time"
)

// Mode selects which interaction channels a widget instance offers.
// The mode is fixed per instance at construction time.
type Mode string

const (
	ModeVoice  Mode = "voice"
	ModeChat   Mode = "chat"
	ModeHybrid Mode = "hybrid"
)

// Position anchors the floating button in the host viewport.
type Position string

const (
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
	PositionTopRight    Position = "top-right"
	PositionTopLeft     Position = "top-left"
)

// Size selects the expanded panel footprint.
type Size string

const (
	SizeTiny    Size = "tiny"
	SizeCompact Size = "compact"
	SizeFull    Size = "full"
)

// Radius selects the panel corner rounding.
type Radius string

const (
	RadiusNone   Radius = "none"
	RadiusSmall  Radius = "small"
	RadiusMedium Radius = "medium"
	RadiusLarge  Radius = "large"
)

// Theme selects the base color scheme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Colors overrides individual theme colors. Empty fields keep the
// theme default. Values are passed through to the presentation layer
// uninterpreted.
type Colors struct {
	Base         string `json:"base_color,omitempty"`
	Accent       string `json:"accent_color,omitempty"`
	ButtonBase   string `json:"button_base_color,omitempty"`
	ButtonAccent string `json:"button_accent_color,omitempty"`
}

// Labels overrides the widget's user-facing text.
type Labels struct {
	Title           string `json:"title,omitempty"`
	StartButtonText string `json:"start_button_text,omitempty"`
	EndButtonText   string `json:"end_button_text,omitempty"`
	ChatPlaceholder string `json:"chat_placeholder,omitempty"`
	EmptyMessage    string `json:"empty_message,omitempty"`
	ConsentAccept   string `json:"consent_accept,omitempty"`
	ConsentDecline  string `json:"consent_decline,omitempty"`
}

// Hooks are synchronous notification callbacks invoked at state machine
// transition points. Each fires once per corresponding transition;
// callers must not assume any ordering beyond that. Hooks run outside
// the controller lock, so they may call back into the widget.
type Hooks struct {
	// OnCallStart fires when a voice call is established.
	OnCallStart func()
	// OnCallEnd fires when a voice call ends, by either side.
	OnCallEnd func()
	// OnMessage fires for every message appended to the history.
	OnMessage func(Message)
	// OnError fires once per normalized failure. The state machine has
	// already returned to idle when it runs.
	OnError func(error)
}

// Config is the construction-time configuration surface. It is
// immutable for the widget's lifetime; the consent flag is the only
// state that outlives the instance.
//
// Assistant and AssistantOverrides are opaque structured values
// forwarded unmodified to the realtime service — the core never
// interprets their contents.
type Config struct {
	PublicKey          string `json:"public_key"`
	AssistantID        string `json:"assistant_id,omitempty"`
	Assistant          any    `json:"assistant,omitempty"`
	AssistantOverrides any    `json:"assistant_overrides,omitempty"`

	// BaseURL points at the realtime service. Empty means the service
	// default.
	BaseURL string `json:"base_url,omitempty"`
	// APIURL, when set, routes chat through a custom HTTP backend
	// instead of the realtime service's chat capability.
	APIURL string `json:"api_url,omitempty"`

	Mode     Mode     `json:"mode,omitempty"`
	Position Position `json:"position,omitempty"`
	Size     Size     `json:"size,omitempty"`
	Radius   Radius   `json:"radius,omitempty"`
	Theme    Theme    `json:"theme,omitempty"`
	Colors   Colors   `json:"colors,omitempty"`
	Labels   Labels   `json:"labels,omitempty"`

	// RequireConsent gates both channels behind a one-time user opt-in.
	RequireConsent bool   `json:"require_consent,omitempty"`
	TermsContent   string `json:"terms_content,omitempty"`
	// StorageKey names the persisted consent flag. Instances sharing a
	// key share the consent decision.
	StorageKey     string `json:"storage_key,omitempty"`
	ShowTranscript bool   `json:"show_transcript,omitempty"`

	// ChatTimeout bounds the wait for an assistant reply. Zero means
	// the default of 30 seconds.
	ChatTimeout time.Duration `json:"-"`

	Hooks Hooks `json:"-"`
}

const (
	defaultStorageKey  = "assistant_widget_consent"
	defaultChatTimeout = 30 * time.Second
)

// Validate reports the first configuration error, if any.
func (c *Config) Validate() error {
	const op = "config"
	if c.PublicKey == "" {
		return errorf(KindConfiguration, op, "public key is required")
	}
	if c.AssistantID == "" && c.Assistant == nil {
		return errorf(KindConfiguration, op, "either assistant_id or assistant is required")
	}
	switch c.Mode {
	case "", ModeVoice, ModeChat, ModeHybrid:
	default:
		return errorf(KindConfiguration, op, "unknown mode %q", c.Mode)
	}
	switch c.Position {
	case "", PositionBottomRight, PositionBottomLeft, PositionTopRight, PositionTopLeft:
	default:
		return errorf(KindConfiguration, op, "unknown position %q", c.Position)
	}
	switch c.Size {
	case "", SizeTiny, SizeCompact, SizeFull:
	default:
		return errorf(KindConfiguration, op, "unknown size %q", c.Size)
	}
	switch c.Radius {
	case "", RadiusNone, RadiusSmall, RadiusMedium, RadiusLarge:
	default:
		return errorf(KindConfiguration, op, "unknown radius %q", c.Radius)
	}
	switch c.Theme {
	case "", ThemeLight, ThemeDark:
	default:
		return errorf(KindConfiguration, op, "unknown theme %q", c.Theme)
	}
	return nil
}

// withDefaults returns a copy with empty fields filled in.
func (c Config) withDefaults() Config {
	if c.Mode == "" {
		c.Mode = ModeVoice
	}
	if c.Position == "" {
		c.Position = PositionBottomRight
	}
	if c.Size == "" {
		c.Size = SizeFull
	}
	if c.Radius == "" {
		c.Radius = RadiusMedium
	}
	if c.Theme == "" {
		c.Theme = ThemeLight
	}
	if c.StorageKey == "" {
		c.StorageKey = defaultStorageKey
	}
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = defaultChatTimeout
	}
	return c
}
