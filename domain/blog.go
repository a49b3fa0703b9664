package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// Block one rich-text block of a blog post body, e.g. {"type":"paragraph","text":"..."}.
type Block struct {
	Type string          `json:"type" yaml:"type"`
	Text string          `json:"text,omitempty" yaml:"text,omitempty"`
	URL  string          `json:"url,omitempty" yaml:"url,omitempty"`
	Data json.RawMessage `json:"data,omitempty" yaml:"-"`
}

type Blog struct {
	Slug        string     `json:"slug" yaml:"slug"`
	Title       string     `json:"title" yaml:"title"`
	Excerpt     string     `json:"excerpt" yaml:"excerpt"`
	Body        []Block    `json:"body" yaml:"body"`
	CoverURL    string     `json:"cover_url,omitempty" yaml:"cover_url,omitempty"`
	Tags        []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	Published   bool       `json:"published" yaml:"published"`
	PublishedAt *time.Time `json:"published_at,omitempty" yaml:"published_at,omitempty"`
}

func (b *Blog) Scan(dst interface{}) error {
	switch src := dst.(type) {
	case string:
		return json.Unmarshal([]byte(src), b)
	case []byte:
		return json.Unmarshal(src, b)
	case nil:
		return nil
	}
	return ErrConvertJSONB
}

func (b Blog) Value() (driver.Value, error) {
	j, err := json.Marshal(b)
	if err != nil {
		return `{}`, err
	}
	return string(j), nil
}
