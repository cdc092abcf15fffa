package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/folio/internal/cache"
	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/content"
	"github.com/debemdeboas/folio/internal/db"
	"github.com/debemdeboas/folio/internal/logger"
	"github.com/debemdeboas/folio/internal/model"
	"github.com/debemdeboas/folio/internal/repository"
	"github.com/debemdeboas/folio/internal/util"
)

const excerptLength = 160

var errExists = errors.New("a blog post with this slug already exists")

// main imports a directory of markdown posts as blog records.
func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	ownerID := flag.String("owner-id", "admin", "Owner user ID for the posts")
	configPath := flag.String("config", config.DefaultConfigPath, "Path to the YAML config file")
	publish := flag.Bool("published", false, "Publish posts whose front matter does not say otherwise")
	dryRun := flag.Bool("dry-run", false, "Validate the posts without saving them")
	flag.Parse()

	l := logger.New("info", "console")
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))

	if *path == "" {
		l.Fatal().Msg("--path is required")
	}
	if err := config.LoadConfig(*configPath); err != nil {
		l.Fatal().Err(err).Msg("Failed to load config")
	}

	d, err := db.Open(config.AppConfig.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("Failed to open database")
	}
	defer d.Close()

	repo := repository.NewDBRecordRepository(d, cache.NewListCache(config.AppConfig.Cache))
	m := &migrator{repo: repo, owner: model.UserID(*ownerID), publish: *publish, dryRun: *dryRun, log: l}

	imported, err := m.importDir(context.Background(), *path)
	if err != nil {
		l.Fatal().Err(err).Str("path", *path).Msg("Migration failed")
	}
	l.Info().Int("imported", imported).Msg("Migration finished")
}

type migrator struct {
	repo    repository.RecordRepository
	owner   model.UserID
	publish bool
	dryRun  bool
	log     zerolog.Logger
}

// importDir saves every .md file of dir. Files that fail are logged and skipped.
func (m *migrator) importDir(ctx context.Context, dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("error reading directory %s: %w", dir, err)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		if err := m.importFile(ctx, filepath.Join(dir, file.Name())); err != nil {
			m.log.Warn().Err(err).Str("file", file.Name()).Msg("Skipping post")
			continue
		}
		imported++
		m.log.Info().Str("file", file.Name()).Bool("dry_run", m.dryRun).Msg("Imported post")
	}
	return imported, nil
}

func (m *migrator) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	record, err := recordFromMarkdown(filepath.Base(path), data, m.publish)
	if err != nil {
		return err
	}
	record.Owner = m.owner

	existing, err := m.repo.List(ctx, content.Blogs, repository.ListOptions{
		Where: map[string]string{"slug": record.Fields.String("slug")},
	})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return errExists
	}

	if m.dryRun {
		return nil
	}
	return m.repo.Create(ctx, record)
}

// recordFromMarkdown builds a valid blog record from a post with optional TOML
// front matter. The file name stands in for a missing title.
func recordFromMarkdown(filename string, data []byte, publish bool) (*model.ContentRecord, error) {
	schema, _ := content.Lookup(content.Blogs)

	body := string(data)
	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	fields := model.Fields{"published": publish}
	imageURL := ""

	if fm, rest, err := util.SplitFrontMatter(data); err == nil {
		body = string(rest)
		if fm.Title != "" {
			title = fm.Title
		}
		fields["slug"] = fm.Slug
		fields["excerpt"] = fm.Excerpt
		fields["category"] = fm.Category
		if fm.Tags != nil {
			fields["tags"] = fm.Tags
		}
		if fm.Published != nil {
			fields["published"] = *fm.Published
		}
		imageURL = fm.Image
	}

	body = strings.TrimSpace(body)
	fields["title"] = title
	fields["content"] = body
	if fields.IsEmpty("excerpt") {
		fields["excerpt"] = excerpt(body)
	}

	fields = schema.Normalize(schema.Defaults().Merge(fields))
	if violations := schema.Validate(fields); len(violations) > 0 {
		messages := make([]string, 0, len(violations))
		for _, v := range violations {
			messages = append(messages, v.Message)
		}
		return nil, fmt.Errorf("invalid post: %s", strings.Join(messages, "; "))
	}

	return &model.ContentRecord{Kind: content.Blogs, Fields: fields, ImageURL: imageURL}, nil
}

// excerpt is the first paragraph of body that is not a heading, cut at a word
// boundary.
func excerpt(body string) string {
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") || strings.HasPrefix(para, "```") {
			continue
		}
		para = strings.Join(strings.Fields(para), " ")
		if len(para) <= excerptLength {
			return para
		}
		cut := strings.LastIndex(para[:excerptLength], " ")
		if cut <= 0 {
			cut = excerptLength
		}
		return para[:cut] + "…"
	}
	return ""
}
