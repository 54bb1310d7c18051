package widget

import (
	"fmt"
	"html/template"
	"strings"
)

// View is everything the renderer needs; rendering the same View twice
// yields the same HTML.
type View struct {
	ID         string
	Options    Options
	Info       AgencyInfo
	Visible    bool
	Input      string
	Transcript []Message
}

type viewData struct {
	View
	Floating bool
	Names    bool
	// ScrollTo is the transcript index of the newest bubble, -1 when empty.
	ScrollTo int
}

func (d viewData) NameOf(s Sender) string {
	if s == SenderUser {
		return "You"
	}
	return d.Info.AssistantName
}

const widgetTemplate = `{{define "widget"}}<div class="lw-root" id="{{.ID}}" data-layout="{{.Options.Layout}}" data-theme="{{.Options.Theme.Name}}">
<div class="lw-toggle" data-role="toggle" style="{{toggleStyle .Options}}">💬</div>
<div class="lw-panel" data-role="panel" data-visible="{{.Visible}}" style="{{panelStyle .Options .Visible}}">
<div class="lw-header" style="{{headerStyle .Options.Theme}}"><span data-role="agency">{{.Info.AgencyName}}</span>{{if .Floating}}<span data-role="close" style="cursor:pointer;">✖</span>{{end}}</div>
{{template "transcript" .}}
<div class="lw-footer" style="{{footerStyle .Options.Theme}}"><input data-role="input" type="text" placeholder="Type message..." value="{{.Input}}" style="{{inputStyle .Options.Theme}}"></div>
</div>
</div>{{end}}
{{define "transcript"}}<div class="lw-messages" data-role="messages" {{if ge .ScrollTo 0}}data-scroll-to="{{.ScrollTo}}" {{end}}style="{{messagesStyle}}">{{range $i, $m := .Transcript}}
<div class="lw-row lw-{{.Sender}}{{if .Failed}} lw-failed{{end}}" data-index="{{$i}}" data-seq="{{.Seq}}" style="{{rowStyle .Sender}}">{{if $.Names}}<small class="lw-name" style="{{nameStyle}}">{{$.NameOf .Sender}}</small>{{end}}<div class="lw-bubble" style="{{bubbleStyle $.Options.Theme .Sender .Failed}}">{{.Text}}</div></div>{{end}}
</div>{{end}}`

var tmpl = template.Must(template.New("lw").Funcs(template.FuncMap{
	"toggleStyle":   toggleStyle,
	"panelStyle":    panelStyle,
	"headerStyle":   headerStyle,
	"footerStyle":   footerStyle,
	"inputStyle":    inputStyle,
	"messagesStyle": messagesStyle,
	"rowStyle":      rowStyle,
	"nameStyle":     nameStyle,
	"bubbleStyle":   bubbleStyle,
}).Parse(widgetTemplate))

func newViewData(v View) viewData {
	v.Options = v.Options.withDefaults()
	if v.Info.AgencyName == "" {
		v.Info.AgencyName = v.Options.DefaultAgencyName
	}
	if v.Info.AssistantName == "" {
		v.Info.AssistantName = v.Options.DefaultAssistantName
	}
	d := viewData{
		View:     v,
		Floating: v.Options.Layout != LayoutInline,
		Names:    v.Options.ShowSenderNames,
		ScrollTo: len(v.Transcript) - 1,
	}
	return d
}

// Render produces the full widget markup: toggle button, panel, header,
// transcript and input field.
func Render(v View) (string, error) {
	return execute("widget", newViewData(v))
}

// RenderTranscript produces only the message list.
func RenderTranscript(v View) (string, error) {
	return execute("transcript", newViewData(v))
}

func execute(name string, d viewData) (string, error) {
	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, name, d); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}

func toggleStyle(o Options) template.CSS {
	return template.CSS(fmt.Sprintf(
		"position:fixed;bottom:20px;right:20px;width:%dpx;height:%dpx;background:%s;color:%s;"+
			"border-radius:50%%;display:flex;align-items:center;justify-content:center;font-size:%dpx;"+
			"cursor:pointer;box-shadow:0 5px 15px rgba(0,0,0,0.4);z-index:9999;",
		o.ButtonSize, o.ButtonSize, o.Theme.ButtonBackground, o.Theme.ButtonForeground, o.ButtonSize*2/5))
}

func panelStyle(o Options, visible bool) template.CSS {
	display := "none"
	if visible {
		display = "flex"
	}
	position := fmt.Sprintf("position:fixed;bottom:%dpx;right:20px;width:360px;", o.ButtonSize+30)
	if o.Layout == LayoutInline {
		position = "position:relative;width:100%;max-width:480px;"
	}
	return template.CSS(fmt.Sprintf(
		"%sheight:480px;background:%s;color:%s;border-radius:16px;font-family:Arial,sans-serif;"+
			"box-shadow:0 10px 30px rgba(0,0,0,0.5);display:%s;flex-direction:column;overflow:hidden;z-index:9999;",
		position, o.Theme.PanelBackground, o.Theme.PanelForeground, display))
}

func headerStyle(t Theme) template.CSS {
	return template.CSS(fmt.Sprintf(
		"background:%s;padding:14px;font-weight:bold;display:flex;justify-content:space-between;align-items:center;",
		t.HeaderBackground))
}

func footerStyle(t Theme) template.CSS {
	return template.CSS(fmt.Sprintf("padding:10px;background:%s;", t.HeaderBackground))
}

func inputStyle(t Theme) template.CSS {
	return template.CSS(fmt.Sprintf(
		"width:100%%;box-sizing:border-box;padding:10px;border-radius:8px;border:none;outline:none;background:%s;color:%s;",
		t.InputBackground, t.InputForeground))
}

func messagesStyle() template.CSS {
	return "flex:1;padding:12px;overflow-y:auto;"
}

func rowStyle(s Sender) template.CSS {
	align := "flex-start"
	if s == SenderUser {
		align = "flex-end"
	}
	return template.CSS("display:flex;flex-direction:column;align-items:" + align + ";margin:6px 0;")
}

func nameStyle() template.CSS {
	return "font-size:11px;opacity:0.6;margin-bottom:2px;"
}

func bubbleStyle(t Theme, s Sender, failed bool) template.CSS {
	bg := t.AIBubble
	switch {
	case failed:
		bg = t.ErrorBubble
	case s == SenderUser:
		bg = t.UserBubble
	}
	return template.CSS(fmt.Sprintf(
		"background:%s;color:%s;padding:8px 12px;border-radius:12px;max-width:80%%;white-space:pre-wrap;word-wrap:break-word;",
		bg, t.BubbleForeground))
}
