package service

import (
	"strings"
	"testing"
)

func TestRenderNote(t *testing.T) {
	if got := RenderNote("   "); got != "" {
		t.Fatalf("expected empty output for blank note, got %q", got)
	}

	rendered := string(RenderNote("**after run** see https://example.com"))
	if !strings.Contains(rendered, "<strong>after run</strong>") {
		t.Fatalf("expected markdown emphasis, got %q", rendered)
	}
	if !strings.Contains(rendered, `href="https://example.com"`) {
		t.Fatalf("expected linkified url, got %q", rendered)
	}

	unsafe := string(RenderNote("<script>alert(1)</script>hello"))
	if strings.Contains(unsafe, "<script") {
		t.Fatalf("expected script to be stripped, got %q", unsafe)
	}
}
