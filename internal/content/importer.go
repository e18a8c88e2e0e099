package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/starford/inkwell/internal/models"
	"github.com/starford/inkwell/internal/store"
)

// Event kinds reported to an EventFunc.
const (
	EventImported = "post.imported"
	EventRemoved  = "post.removed"
)

// EventFunc is called after an import changes the store.
type EventFunc func(kind, postID string)

// Store is the persistence the importer writes to.
type Store interface {
	UpsertAccount(ctx context.Context, a models.Account) error
	UpsertCategory(ctx context.Context, c models.Category) error
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	UpsertPost(ctx context.Context, r store.PostRecord) error
	DeletePostBySource(ctx context.Context, path string) (bool, error)
	SourceChecksums(ctx context.Context) (map[string]string, error)
}

var _ Store = (*store.DB)(nil)

// postNamespace seeds the deterministic post ids.
var postNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("inkwell:posts"))

// PostID returns the id of the post imported from rel. It is stable across
// re-imports so likes and comments survive edits.
func PostID(rel string) string {
	return uuid.NewSHA1(postNamespace, []byte(rel)).String()
}

// Stats summarises a Sync pass.
type Stats struct {
	Imported int
	Skipped  int
	Removed  int
	Failed   int
}

// Importer loads a content directory into the store.
type Importer struct {
	store   Store
	src     *Source
	logger  *slog.Logger
	onEvent EventFunc
}

// NewImporter creates an Importer. onEvent may be nil.
func NewImporter(st Store, src *Source, logger *slog.Logger, onEvent EventFunc) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: st, src: src, logger: logger, onEvent: onEvent}
}

func (im *Importer) emit(kind, postID string) {
	if im.onEvent != nil {
		im.onEvent(kind, postID)
	}
}

// Sync brings the store up to date with the directory: reference data is
// upserted, new and changed posts are imported and posts whose file is gone
// are removed. Per-file failures are logged and counted, not returned.
func (im *Importer) Sync(ctx context.Context) (Stats, error) {
	var st Stats
	if err := im.LoadReference(ctx); err != nil {
		return st, err
	}

	entries, err := im.src.List()
	if err != nil {
		return st, err
	}
	known, err := im.store.SourceChecksums(ctx)
	if err != nil {
		return st, err
	}

	disk := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		disk[e.Path] = struct{}{}
		if known[e.Path] == e.Checksum {
			st.Skipped++
			continue
		}
		if _, err := im.importEntry(ctx, e); err != nil {
			st.Failed++
			im.logger.Warn("sync: import failed", slog.String("path", e.Path), slog.String("error", err.Error()))
			continue
		}
		st.Imported++
		im.logger.Debug("sync: imported", slog.String("path", e.Path))
	}

	for p := range known {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := im.Remove(ctx, p); err != nil {
			st.Failed++
			im.logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		st.Removed++
	}
	return st, nil
}

// ImportFile imports the post at rel regardless of its stored checksum and
// returns its id.
func (im *Importer) ImportFile(ctx context.Context, rel string) (string, error) {
	data, err := im.src.Read(rel)
	if err != nil {
		return "", err
	}
	info, err := im.src.Stat(rel)
	if err != nil {
		return "", err
	}
	return im.importData(ctx, rel, data, info.ModTime())
}

// Remove deletes the post imported from rel, if any.
func (im *Importer) Remove(ctx context.Context, rel string) error {
	deleted, err := im.store.DeletePostBySource(ctx, rel)
	if err != nil || !deleted {
		return err
	}
	im.logger.Debug("content: removed", slog.String("path", rel))
	im.emit(EventRemoved, PostID(rel))
	return nil
}

func (im *Importer) importEntry(ctx context.Context, e Entry) (string, error) {
	data, err := im.src.Read(e.Path)
	if err != nil {
		return "", err
	}
	return im.importData(ctx, e.Path, data, e.ModTime)
}

func (im *Importer) importData(ctx context.Context, rel string, data []byte, modTime time.Time) (string, error) {
	doc, err := Parse(rel, data)
	if err != nil {
		return "", err
	}

	p := models.Post{
		ID:        PostID(rel),
		Title:     doc.Meta.Title,
		Slug:      doc.Meta.Slug,
		Content:   doc.Body,
		Excerpt:   doc.Meta.Excerpt,
		Published: doc.Meta.Published,
		AuthorID:  doc.Meta.Author,
		CreatedAt: modTime,
	}
	if doc.Meta.CreatedAt != nil {
		p.CreatedAt = *doc.Meta.CreatedAt
	}
	if p.Published {
		at := p.CreatedAt
		if doc.Meta.PublishedAt != nil {
			at = *doc.Meta.PublishedAt
		}
		p.PublishedAt = &at
	}
	if doc.Meta.Category != "" {
		c, err := im.store.GetCategoryBySlug(ctx, doc.Meta.Category)
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("unknown category %q", doc.Meta.Category)
		}
		if err != nil {
			return "", err
		}
		p.CategoryID = c.ID
	}

	err = im.store.UpsertPost(ctx, store.PostRecord{
		Post:               p,
		SourcePath:         rel,
		Checksum:           checksum(data),
		ImpliedCreatedAt:   doc.Meta.CreatedAt == nil,
		ImpliedPublishedAt: doc.Meta.CreatedAt == nil && doc.Meta.PublishedAt == nil,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("unknown author %q", p.AuthorID)
	case errors.Is(err, store.ErrDuplicate):
		return "", fmt.Errorf("slug %q already taken", p.Slug)
	case err != nil:
		return "", err
	}
	im.emit(EventImported, p.ID)
	return p.ID, nil
}

type accountsFile struct {
	Accounts []struct {
		ID          string `yaml:"id"`
		DisplayName string `yaml:"display_name"`
		Avatar      string `yaml:"avatar"`
		Active      *bool  `yaml:"active"`
	} `yaml:"accounts"`
}

type categoriesFile struct {
	Categories []models.Category `yaml:"categories"`
}

// LoadReference upserts accounts.yaml and categories.yaml. Missing files are
// skipped.
func (im *Importer) LoadReference(ctx context.Context) error {
	var af accountsFile
	if err := im.readYAML(AccountsFile, &af); err != nil {
		return err
	}
	for _, e := range af.Accounts {
		if e.ID == "" {
			continue
		}
		a := models.Account{ID: e.ID, DisplayName: e.DisplayName, Avatar: e.Avatar, Active: e.Active == nil || *e.Active}
		if err := im.store.UpsertAccount(ctx, a); err != nil {
			return fmt.Errorf("content: account %s: %w", a.ID, err)
		}
	}

	var cf categoriesFile
	if err := im.readYAML(CategoriesFile, &cf); err != nil {
		return err
	}
	for _, c := range cf.Categories {
		if c.ID == "" {
			continue
		}
		if c.Slug == "" {
			c.Slug = slugify(c.Name)
		}
		if err := im.store.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("content: category %s: %w", c.ID, err)
		}
	}
	im.logger.Debug("content: reference data loaded",
		slog.Int("accounts", len(af.Accounts)), slog.Int("categories", len(cf.Categories)))
	return nil
}

func (im *Importer) readYAML(name string, v any) error {
	data, err := im.src.Read(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("content: parse %s: %w", name, err)
	}
	return nil
}
