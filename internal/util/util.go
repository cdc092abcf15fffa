// Package util provides utility functions for content hashing, slugs and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

// FrontMatter is the TOML header of an imported markdown post.
type FrontMatter struct {
	*mast.TitleData
	Slug      string   `toml:"slug"`
	Excerpt   string   `toml:"excerpt"`
	Category  string   `toml:"category"`
	Tags      []string `toml:"tags"`
	Published *bool    `toml:"published"`
	Image     string   `toml:"image"`
	Consumed  int      `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

var (
	nonSlugChars = regexp.MustCompile("[^a-z0-9]+")
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
)

// Slugify lowercases s and collapses every run of other characters into a single dash.
// An input with no usable characters yields "".
func Slugify(s string) string {
	slug := strings.ToLower(s)
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	delimiter := []byte("%%%")

	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	header := md[len(delimiter) : end-len(delimiter)-1]
	info := &FrontMatter{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(header), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	if info.Slug == "" {
		info.Slug = Slugify(info.Title)
	}
	info.Consumed = end

	return info, nil
}

// SplitFrontMatter returns the front matter of md and the markdown that follows it.
func SplitFrontMatter(md []byte) (*FrontMatter, []byte, error) {
	info, err := GetFrontMatter(md)
	if err != nil {
		return nil, md, err
	}
	md = bytes.TrimLeft(markdown.NormalizeNewlines(md), "\n \t\r")
	return info, md[info.Consumed:], nil
}
