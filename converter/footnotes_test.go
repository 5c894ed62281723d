package converter

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const refSup = `<sup style="color: #0366d6; font-size: 0.8em;">`

func TestFootnoteLinks_DeduplicatesAndPreservesInternalLinks(t *testing.T) {
	t.Parallel()

	fragment := `<a href="#sec">Section</a>`
	platform := `<a href="https://mp.weixin.qq.com/s/abc">WeChat</a>`
	input := `<p>See <a href="https://example.com">Example</a> and <a href="https://example.com">again</a>, ` +
		`plus ` + fragment + ` and ` + platform + `.</p>`

	got, notes, err := FootnoteLinks(input)
	if err != nil {
		t.Fatalf("FootnoteLinks: %v", err)
	}

	want := []Footnote{{URL: "https://example.com", Label: "Example"}}
	if diff := cmp.Diff(want, notes); diff != "" {
		t.Errorf("footnotes mismatch (-want +got):\n%s", diff)
	}

	for _, s := range []string{
		"Example" + refSup + "[1]</sup>",
		"again" + refSup + "[1]</sup>",
		fragment,
		platform,
		"<sup>[1]</sup> Example: https://example.com</p>",
		DefaultFootnoteHeading,
	} {
		if !strings.Contains(got, s) {
			t.Errorf("output missing %q\n%s", s, got)
		}
	}
	if strings.Contains(got, "[2]") {
		t.Errorf("duplicate URL produced a second footnote:\n%s", got)
	}
	if strings.Count(got, "https://example.com") != 1 {
		t.Errorf("external URL should appear once, in the footnote section:\n%s", got)
	}
}

func TestFootnoteLinks_FirstSeenGetsIndexOne(t *testing.T) {
	t.Parallel()

	input := `<p><a href="https://a.example">A</a> <a href="https://b.example">B</a> <a href="https://a.example">A again</a></p>`
	got, notes, err := FootnoteLinks(input)
	if err != nil {
		t.Fatalf("FootnoteLinks: %v", err)
	}

	want := []Footnote{
		{URL: "https://a.example", Label: "A"},
		{URL: "https://b.example", Label: "B"},
	}
	if diff := cmp.Diff(want, notes); diff != "" {
		t.Errorf("footnotes mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got, "A again"+refSup+"[1]</sup>") {
		t.Errorf("repeated URL should reuse index 1:\n%s", got)
	}
	if !strings.Contains(got, "B"+refSup+"[2]</sup>") {
		t.Errorf("second URL should get index 2:\n%s", got)
	}
	if first, second := strings.Index(got, "[1]</sup> A:"), strings.Index(got, "[2]</sup> B:"); first < 0 || second < first {
		t.Errorf("footnote section out of order:\n%s", got)
	}
}

func TestFootnoteLinks_NoExternalLinksUnchanged(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"<p>no links at all</p>\n",
		`<p><a href="#top">top</a> and <a href="http://mp.weixin.qq.com/x">wx</a></p>`,
	}
	for _, in := range inputs {
		got, notes, err := FootnoteLinks(in)
		if err != nil {
			t.Fatalf("FootnoteLinks: %v", err)
		}
		if got != in {
			t.Errorf("got %q, want unchanged %q", got, in)
		}
		if len(notes) != 0 {
			t.Errorf("unexpected footnotes %v", notes)
		}
	}
}

func TestFootnoter_KeepsInlineMarkupAndCustomHeading(t *testing.T) {
	t.Parallel()

	f := Footnoter{PlatformHost: "internal.example", Heading: "References"}
	got, notes, err := f.Apply(`<p><a href="https://ext.example/doc"><strong>Docs</strong></a> <a href="https://internal.example/x">in</a></p>`)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(notes) != 1 || notes[0].Label != "Docs" {
		t.Fatalf("notes = %v", notes)
	}
	for _, s := range []string{
		"<strong>Docs</strong>" + refSup + "[1]</sup>",
		`<a href="https://internal.example/x">in</a>`,
		"<strong>References</strong>",
	} {
		if !strings.Contains(got, s) {
			t.Errorf("output missing %q\n%s", s, got)
		}
	}
}
