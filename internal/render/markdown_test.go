package render

import (
	"strings"
	"testing"
)

func TestRender_Basic(t *testing.T) {
	out, err := NewMarkdown().Render("# Title\n\nSome *emphasis*.\n")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, `<h1 id="title">Title</h1>`) {
		t.Errorf("missing heading in %q", out)
	}
	if !strings.Contains(out, "<em>emphasis</em>") {
		t.Errorf("missing emphasis in %q", out)
	}
}

func TestRender_GFMTable(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	out, err := NewMarkdown().Render(src)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("expected table in %q", out)
	}
}

func TestRender_RawHTMLOmittedByDefault(t *testing.T) {
	src := "<script>alert(1)</script>\n"
	out, _ := NewMarkdown().Render(src)
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML leaked: %q", out)
	}
	out, _ = NewMarkdown(WithUnsafeHTML()).Render(src)
	if !strings.Contains(out, "<script>") {
		t.Errorf("unsafe mode dropped raw HTML: %q", out)
	}
}

func TestRender_HardWraps(t *testing.T) {
	out, _ := NewMarkdown(WithHardWraps()).Render("line one\nline two\n")
	if !strings.Contains(out, "<br") {
		t.Errorf("expected <br> in %q", out)
	}
}
