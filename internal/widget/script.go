package widget

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"text/template"
)

//go:embed assets/widget.js.tmpl
var scriptSource string

var scriptTmpl = template.Must(template.New("widget.js").Parse(scriptSource))

// ScriptConfig selects what the served browser script compiles in.
type ScriptConfig struct {
	Variant Variant
	BaseURL string
}

type scriptOptions struct {
	BaseURL              string `json:"baseUrl"`
	Layout               Layout `json:"layout"`
	Theme                Theme  `json:"theme"`
	ButtonSize           int    `json:"buttonSize"`
	ShowSenderNames      bool   `json:"showSenderNames"`
	DefaultAgencyName    string `json:"defaultAgencyName"`
	DefaultAssistantName string `json:"defaultAssistantName"`
	AllowEmpty           bool   `json:"allowEmpty"`
	ShowBackendErrors    bool   `json:"showBackendErrors"`
	OrderReplies         bool   `json:"orderReplies"`
}

// Script renders the embeddable script for one variant. Every script tag
// that loads it builds its own widget from its data-agency attribute.
func Script(cfg ScriptConfig) ([]byte, error) {
	if cfg.Variant == "" {
		cfg.Variant = VariantNamed
	}
	opts := Preset(cfg.Variant, "")
	if cfg.BaseURL != "" {
		opts.BaseURL = cfg.BaseURL
	}
	opts = opts.withDefaults()

	conf, err := json.Marshal(scriptOptions{
		BaseURL:              opts.BaseURL,
		Layout:               opts.Layout,
		Theme:                opts.Theme,
		ButtonSize:           opts.ButtonSize,
		ShowSenderNames:      opts.ShowSenderNames,
		DefaultAgencyName:    opts.DefaultAgencyName,
		DefaultAssistantName: opts.DefaultAssistantName,
		AllowEmpty:           opts.AllowEmpty,
		ShowBackendErrors:    opts.ShowBackendErrors,
		OrderReplies:         opts.Ordering == OrderSubmission,
	})
	if err != nil {
		return nil, fmt.Errorf("encode script config: %w", err)
	}

	var buf bytes.Buffer
	if err := scriptTmpl.Execute(&buf, struct{ Config string }{string(conf)}); err != nil {
		return nil, fmt.Errorf("render script: %w", err)
	}
	return buf.Bytes(), nil
}
