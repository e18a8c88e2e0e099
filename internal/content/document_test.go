package content

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\nauthor: alice\ncategory: go\npublished: true\npublished_at: 2024-03-01T10:00:00Z\n---\n# Heading\nBody text.\n")
	doc, err := Parse("posts/hello-world.md", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Meta.Title != "Hello" || doc.Meta.Author != "alice" || doc.Meta.Category != "go" {
		t.Errorf("meta = %+v", doc.Meta)
	}
	if !doc.Meta.Published || doc.Meta.PublishedAt == nil || doc.Meta.PublishedAt.Hour() != 10 {
		t.Errorf("published = %v at %v", doc.Meta.Published, doc.Meta.PublishedAt)
	}
	if doc.Meta.Slug != "hello-world" {
		t.Errorf("slug = %q, want hello-world", doc.Meta.Slug)
	}
	if doc.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", doc.Body)
	}
	if doc.Meta.Excerpt != "# Heading Body text." {
		t.Errorf("excerpt = %q", doc.Meta.Excerpt)
	}
}

func TestParse_TitleFallsBackToHeading(t *testing.T) {
	doc, err := Parse("a.md", []byte("---\nauthor: bob\n---\nintro\n# The Title\n"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Meta.Title != "The Title" {
		t.Errorf("title = %q", doc.Meta.Title)
	}
	if doc.Meta.Published {
		t.Error("posts default to draft")
	}
}

func TestParse_RequiresAuthor(t *testing.T) {
	for name, input := range map[string]string{
		"no frontmatter": "# Just a heading\n",
		"blank author":   "---\ntitle: x\nauthor: \"  \"\n---\nbody",
	} {
		if _, err := Parse("x.md", []byte(input)); !errors.Is(err, ErrNoAuthor) {
			t.Errorf("%s: err = %v, want ErrNoAuthor", name, err)
		}
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse("bad.md", []byte("---\n: invalid: yaml: {{{\n---\nBody\n")); err == nil {
		t.Error("expected error for invalid frontmatter")
	}
}

func TestExcerptTruncatesRunes(t *testing.T) {
	body := strings.Repeat("é", 300)
	got := excerpt(body)
	if n := utf8.RuneCountInString(got); n != excerptRunes {
		t.Errorf("excerpt runes = %d, want %d", n, excerptRunes)
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := map[string]string{
		"hello.md":              "hello",
		"2024/My First Post.md": "my-first-post",
		"weird__name--here!.md": "weird-name-here",
	}
	for in, want := range tests {
		if got := slugFromPath(in); got != want {
			t.Errorf("slugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}
