// Package util provides content hashing and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
)

var ErrNoFrontMatter = errors.New("invalid front matter format")

var frontMatterDelimiter = []byte("%%%")

// FrontMatter is the TOML block between %%% lines at the top of a draft file.
type FrontMatter struct {
	Title  string    `toml:"title"`
	Author string    `toml:"author"`
	Date   time.Time `toml:"date"`
	Tags   []string  `toml:"tags"`

	// Body is the Markdown after the closing delimiter.
	Body []byte `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	if !bytes.HasPrefix(md, frontMatterDelimiter) {
		return nil, ErrNoFrontMatter
	}
	rest := md[len(frontMatterDelimiter):]
	if !bytes.HasPrefix(rest, []byte("\n")) {
		return nil, ErrNoFrontMatter
	}

	closing := append([]byte("\n"), frontMatterDelimiter...)
	end := bytes.Index(rest, closing)
	if end == -1 {
		return nil, ErrNoFrontMatter
	}

	info := &FrontMatter{}
	if _, err := toml.Decode(string(rest[:end]), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}
	info.Body = bytes.TrimLeft(rest[end+len(closing):], "\n")

	return info, nil
}

// SplitFrontMatter returns the front matter when present and the Markdown
// body either way.
func SplitFrontMatter(md []byte) (*FrontMatter, []byte) {
	info, err := GetFrontMatter(md)
	if err != nil {
		return &FrontMatter{}, md
	}
	return info, info.Body
}
