// Package topic defines the instrument identifiers alerts are keyed by.
package topic

import "strings"

// Topic names a tradable instrument ("gold", "bitcoin") or the broadcast sentinel.
type Topic string

// All is the broadcast sentinel: an alert on All reaches every recipient
// holding at least one subscription.
const All Topic = "all"

// Normalize folds a raw topic string into canonical form.
// Empty input maps to the broadcast sentinel.
func Normalize(raw string) Topic {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return All
	}
	return Topic(s)
}

// IsBroadcast reports whether t is the broadcast sentinel.
func (t Topic) IsBroadcast() bool {
	return t == All
}

// String returns the topic slug.
func (t Topic) String() string {
	return string(t)
}

// Entry is one instrument offered on the signal menu.
type Entry struct {
	Slug  Topic
	Title string
}

// Catalog is the ordered set of instruments the bot offers.
type Catalog struct {
	entries []Entry
	titles  map[Topic]string
}

// NewCatalog builds a catalog from ordered entries. Degenerate slugs are skipped.
func NewCatalog(entries []Entry) *Catalog {
	c := &Catalog{titles: make(map[Topic]string, len(entries))}
	for _, e := range entries {
		slug := Normalize(string(e.Slug))
		if slug == "" || slug.IsBroadcast() {
			continue
		}
		if _, dup := c.titles[slug]; dup {
			continue
		}
		title := strings.TrimSpace(e.Title)
		if title == "" {
			title = string(slug)
		}
		c.entries = append(c.entries, Entry{Slug: slug, Title: title})
		c.titles[slug] = title
	}
	return c
}

// Entries returns the catalog in menu order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Title resolves the display title for a topic, falling back to the slug.
func (c *Catalog) Title(t Topic) string {
	if title, ok := c.titles[t]; ok {
		return title
	}
	return string(t)
}

// Contains reports whether the topic is offered on the menu.
func (c *Catalog) Contains(t Topic) bool {
	_, ok := c.titles[t]
	return ok
}
