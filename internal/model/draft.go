package model

import "time"

type DraftID string

// Draft is the in-progress, unsaved post.
type Draft struct {
	ID      DraftID
	Title   string
	Author  string
	Content string

	UpdatedAt time.Time
}

// Missing returns the names of the empty required fields, in form order.
func (d Draft) Missing() []string {
	var missing []string
	if d.Title == "" {
		missing = append(missing, "title")
	}
	if d.Author == "" {
		missing = append(missing, "author")
	}
	if d.Content == "" {
		missing = append(missing, "content")
	}
	return missing
}

func (d Draft) IsEmpty() bool {
	return d.Title == "" && d.Author == "" && d.Content == ""
}
