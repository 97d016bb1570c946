package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

const maxLogSnippetRunes = 64

// logf 统一输出带组件前缀的日志，例如 "[reminder] registered 8 triggers"。
func logf(component, format string, args ...any) {
	log.Printf("["+component+"] "+format, args...)
}

// logSnippet 截断用户输入的备注，避免日志被长文本刷屏。
func logSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	if utf8.RuneCountInString(trimmed) <= maxLogSnippetRunes {
		return trimmed
	}
	return string([]rune(trimmed)[:maxLogSnippetRunes]) + "…(truncated)"
}
