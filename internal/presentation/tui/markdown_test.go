package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/dsl"
)

func TestDefinitionMarkdown(t *testing.T) {
	b := dsl.New()
	b.Add("greeting").
		Prompt("Hello there.\nHow can I help?").
		Say("asks about billing", "billing")
	b.Add("billing").
		Tools(domain.Tool{"type": "transfer", "number": "+15550100"})

	md := DefinitionMarkdown("support", b.MustBuild())

	for _, want := range []string{
		"# support\n",
		"2 states, starting at **greeting**.",
		"## greeting (start)",
		"> Hello there.\n> How can I help?\n",
		"- -> **billing**: asks about billing _(keeps speaking)_",
		"## billing\n",
		"_No prompt._",
		"- `number=\"+15550100\" type=\"transfer\"`",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("DefinitionMarkdown() = \n%s\nWant substring: %q", md, want)
		}
	}
}

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(true)
	out, err := render("# title")
	if err != nil {
		t.Fatal(err)
	}
	if out != "# title" {
		t.Errorf("plain renderer should pass markdown through, got %q", out)
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	if !strings.Contains(buf.String(), "|___/") {
		t.Errorf("banner missing art: %q", buf.String())
	}
}
