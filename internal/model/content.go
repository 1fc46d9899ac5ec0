package model

import (
	"bytes"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Post is a row of the `posts` table.  BodyHTML is derived from Body by
// SetBody and never written directly.
type Post struct {
	ID        uint64    `db:"id" json:"id"`
	Body      string    `db:"body" json:"body"`
	BodyHTML  string    `db:"body_html" json:"body_html"`
	AuthorID  uint64    `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	AuthorUsername string `db:"author_username" json:"author"`
	CommentCount   int64  `db:"comment_count" json:"comment_count"`
}

// SetBody stores raw markdown together with its sanitised HTML rendering.
func (p *Post) SetBody(raw string) error {
	html, err := renderMarkdown(raw, postPolicy)
	if err != nil {
		return err
	}
	p.Body, p.BodyHTML = raw, html
	return nil
}

// Comment is a row of the `comments` table.  Disabled comments stay in the
// table but are hidden from everybody except moderators.
type Comment struct {
	ID        uint64    `db:"id" json:"id"`
	Body      string    `db:"body" json:"body"`
	BodyHTML  string    `db:"body_html" json:"body_html"`
	Disabled  bool      `db:"disabled" json:"disabled"`
	AuthorID  uint64    `db:"author_id" json:"author_id"`
	PostID    uint64    `db:"post_id" json:"post_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	AuthorUsername string `db:"author_username" json:"author"`
}

// DisabledCommentText replaces the body of a disabled comment for viewers
// without the moderate permission.
const DisabledCommentText = "This comment has been disabled by a moderator."

// SetBody stores raw markdown together with its sanitised HTML rendering.
// Comments allow a smaller set of inline tags than posts.
func (c *Comment) SetBody(raw string) error {
	html, err := renderMarkdown(raw, commentPolicy)
	if err != nil {
		return err
	}
	c.Body, c.BodyHTML = raw, html
	return nil
}

// Redacted returns the comment as a viewer without PermModerate sees it.
func (c Comment) Redacted() Comment {
	if c.Disabled {
		c.Body = DisabledCommentText
		c.BodyHTML = "<p><i>" + DisabledCommentText + "</i></p>"
	}
	return c
}

var (
	postPolicy    = newPolicy("a", "abbr", "acronym", "b", "blockquote", "code", "em", "i", "li", "ol", "pre", "strong", "ul", "h1", "h2", "h3", "p")
	commentPolicy = newPolicy("a", "abbr", "acronym", "b", "code", "em", "i", "strong")
)

func newPolicy(tags ...string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title").OnElements("a", "abbr", "acronym")
	p.RequireNoFollowOnLinks(true)
	return p
}

func renderMarkdown(raw string, policy *bluemonday.Policy) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(raw), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}
