package widget

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the chat backend the widget talks to unless told otherwise.
const DefaultBaseURL = "https://luxury-leads-ai.onrender.com"

// Layout decides whether the panel hides behind the floating button.
type Layout string

const (
	// LayoutFloating starts with the panel hidden; the button opens it.
	LayoutFloating Layout = "floating"
	// LayoutInline starts with the panel visible and has no close control.
	LayoutInline Layout = "inline"
)

// Ordering decides when a reply joins the transcript.
type Ordering string

const (
	// OrderSubmission holds replies until every earlier submission has its
	// reply in the transcript.
	OrderSubmission Ordering = "submission"
	// OrderArrival appends replies as their responses complete.
	OrderArrival Ordering = "arrival"
)

// Theme is the colour palette of one widget variant.
type Theme struct {
	Name             string `json:"name"`
	ButtonBackground string `json:"buttonBackground"`
	ButtonForeground string `json:"buttonForeground"`
	PanelBackground  string `json:"panelBackground"`
	PanelForeground  string `json:"panelForeground"`
	HeaderBackground string `json:"headerBackground"`
	InputBackground  string `json:"inputBackground"`
	InputForeground  string `json:"inputForeground"`
	UserBubble       string `json:"userBubble"`
	AIBubble         string `json:"aiBubble"`
	BubbleForeground string `json:"bubbleForeground"`
	ErrorBubble      string `json:"errorBubble"`
}

var (
	ThemeMidnight = Theme{
		Name:             "midnight",
		ButtonBackground: "#000",
		ButtonForeground: "white",
		PanelBackground:  "#121212",
		PanelForeground:  "white",
		HeaderBackground: "#000",
		InputBackground:  "#222",
		InputForeground:  "white",
		UserBubble:       "#0084ff",
		AIBubble:         "#2a2a2a",
		BubbleForeground: "white",
		ErrorBubble:      "#7a1f1f",
	}
	ThemeDaylight = Theme{
		Name:             "daylight",
		ButtonBackground: "#111",
		ButtonForeground: "white",
		PanelBackground:  "#fff",
		PanelForeground:  "#111",
		HeaderBackground: "#f2f2f2",
		InputBackground:  "#f7f7f7",
		InputForeground:  "#111",
		UserBubble:       "#dcf8c6",
		AIBubble:         "#eee",
		BubbleForeground: "#111",
		ErrorBubble:      "#fde2e2",
	}
	ThemeGold = Theme{
		Name:             "gold",
		ButtonBackground: "#c9a227",
		ButtonForeground: "#111",
		PanelBackground:  "#1b1b1b",
		PanelForeground:  "#f5f5f5",
		HeaderBackground: "#c9a227",
		InputBackground:  "#262626",
		InputForeground:  "#f5f5f5",
		UserBubble:       "#c9a227",
		AIBubble:         "#333",
		BubbleForeground: "#f5f5f5",
		ErrorBubble:      "#8b2323",
	}
)

// Options configures one widget instance.
type Options struct {
	BaseURL  string
	AgencyID string

	Layout          Layout
	Theme           Theme
	ButtonSize      int // px
	ShowSenderNames bool

	DefaultAgencyName    string
	DefaultAssistantName string

	// AllowEmpty submits blank input instead of ignoring it.
	AllowEmpty bool
	// ShowBackendErrors displays the reply's error field as a failed AI
	// message instead of the "No response" placeholder.
	ShowBackendErrors bool
	Ordering          Ordering

	// RequestTimeout bounds each request; zero waits indefinitely.
	RequestTimeout time.Duration
	HTTPClient     *http.Client
}

// Variant names one of the shipped widget presets.
type Variant string

const (
	VariantClassic Variant = "classic"
	VariantNamed   Variant = "named"
	VariantInline  Variant = "inline"
	VariantCompact Variant = "compact"
)

// Variants lists the presets in a stable order.
var Variants = []Variant{VariantClassic, VariantNamed, VariantInline, VariantCompact}

// ParseVariant accepts a preset name; empty selects VariantNamed.
func ParseVariant(s string) (Variant, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return VariantNamed, nil
	}
	for _, v := range Variants {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown widget variant %q", s)
}

// Preset returns the options of a variant bound to agencyID.
func Preset(v Variant, agencyID string) Options {
	opts := Options{
		BaseURL:              DefaultBaseURL,
		AgencyID:             agencyID,
		Layout:               LayoutFloating,
		Theme:                ThemeMidnight,
		ButtonSize:           60,
		DefaultAgencyName:    "Assistant",
		DefaultAssistantName: "Assistant",
		Ordering:             OrderSubmission,
	}
	switch v {
	case VariantNamed:
		opts.ShowSenderNames = true
	case VariantInline:
		opts.Layout = LayoutInline
		opts.Theme = ThemeDaylight
		opts.DefaultAgencyName = "AI Assistant"
		opts.DefaultAssistantName = "AI Assistant"
		opts.AllowEmpty = true
		opts.ShowBackendErrors = true
	case VariantCompact:
		opts.Theme = ThemeGold
		opts.ButtonSize = 50
		opts.DefaultAgencyName = "AI Assistant"
		opts.DefaultAssistantName = "AI Assistant"
	}
	return opts
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Layout == "" {
		o.Layout = LayoutFloating
	}
	if o.Theme.Name == "" {
		o.Theme = ThemeMidnight
	}
	if o.ButtonSize <= 0 {
		o.ButtonSize = 60
	}
	if o.DefaultAgencyName == "" {
		o.DefaultAgencyName = "Assistant"
	}
	if o.DefaultAssistantName == "" {
		o.DefaultAssistantName = o.DefaultAgencyName
	}
	if o.Ordering == "" {
		o.Ordering = OrderSubmission
	}
	return o
}
