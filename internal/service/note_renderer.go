package service

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	noteMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	noteSanitizer = bluemonday.UGCPolicy()
)

// RenderNote 把饮水备注按 Markdown 渲染并做 XSS 过滤，备注为空时返回空串
func RenderNote(note string) template.HTML {
	content := strings.TrimSpace(note)
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := noteMarkdown.Convert([]byte(content), &buf); err != nil {
		logf("intake", "render note failed: %v (note=%s)", err, logSnippet(content))
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(noteSanitizer.SanitizeBytes(buf.Bytes()))
}
