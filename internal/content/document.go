// Package content imports Markdown posts and YAML reference data into the
// content store and keeps it current while the files change.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// excerptRunes is the length of a derived excerpt.
const excerptRunes = 200

// Frontmatter is the YAML header of a post file.
type Frontmatter struct {
	Title       string     `yaml:"title"`
	Slug        string     `yaml:"slug"`
	Author      string     `yaml:"author"`
	Category    string     `yaml:"category"`
	Published   bool       `yaml:"published"`
	PublishedAt *time.Time `yaml:"published_at"`
	CreatedAt   *time.Time `yaml:"created_at"`
	Excerpt     string     `yaml:"excerpt"`
}

// Document is a parsed post file.
type Document struct {
	Meta Frontmatter
	Body string
}

// ErrNoAuthor is returned for a post file whose frontmatter names no author.
var ErrNoAuthor = errors.New("content: frontmatter has no author")

// Parse splits data into frontmatter and body and fills derived fields:
// the title falls back to the first H1, the slug to the file stem of rel and
// the excerpt to the leading runes of the body.
func Parse(rel string, data []byte) (*Document, error) {
	block, body, ok := splitFrontmatter(data)
	doc := &Document{Body: body}
	if ok {
		if err := yaml.Unmarshal(block, &doc.Meta); err != nil {
			return nil, fmt.Errorf("content: frontmatter of %s: %w", rel, err)
		}
	}
	if strings.TrimSpace(doc.Meta.Author) == "" {
		return nil, ErrNoAuthor
	}
	doc.Meta.Author = strings.TrimSpace(doc.Meta.Author)
	if doc.Meta.Title == "" {
		doc.Meta.Title = firstHeading(body)
	}
	if doc.Meta.Slug == "" {
		doc.Meta.Slug = slugFromPath(rel)
	}
	if doc.Meta.Excerpt == "" {
		doc.Meta.Excerpt = excerpt(body)
	}
	return doc, nil
}

// splitFrontmatter separates a leading --- delimited YAML block from the
// body. ok is false when the file has no complete block.
func splitFrontmatter(data []byte) (block []byte, body string, ok bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}
	after := rest[idx+1+len(delim):]
	return rest[:idx], strings.TrimLeft(string(after), "\n\r"), true
}

func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func slugFromPath(rel string) string {
	return slugify(strings.TrimSuffix(path.Base(rel), path.Ext(rel)))
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func excerpt(body string) string {
	text := strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(text) <= excerptRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptRunes])
}
