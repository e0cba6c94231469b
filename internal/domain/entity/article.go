// Package entity defines the core domain entities of the funding catalog:
// articles, contact partners and their typed keys, along with the error kinds
// every layer above maps its failures into.
package entity

import "time"

// Article is a time-boxed funding announcement.
// It is a value type: setters return modified copies.
type Article struct {
	ID                  ID[Article]
	Title               string
	Text                string
	Rubric              Rubric
	Priority            Priority
	TargetGroup         TargetGroup
	SupportType         SupportType
	Subject             Subject
	State               ArticleState
	ArchiveDate         time.Time
	ApplicationDeadline time.Time

	// RecurrentInfo is set when the article spawns a successor once its
	// application deadline has passed.
	RecurrentInfo *RecurrentInfo

	ContactPartner ID[ContactPartner]
	ChildArticle   ID[Article]
	ParentArticle  ID[Article]
}

// RecurrentInfo carries the dates stamped onto the next generated article.
type RecurrentInfo struct {
	CheckFrom           time.Time
	ApplicationDeadline time.Time
	ArchiveDate         time.Time
}

// IsRecurrent reports whether the article will spawn a successor.
func (a Article) IsRecurrent() bool {
	return a.RecurrentInfo != nil
}

// HasChild reports whether a successor has already been linked.
func (a Article) HasChild() bool {
	return a.ChildArticle.IsAssigned()
}

// HasParent reports whether the article was generated from another one.
func (a Article) HasParent() bool {
	return a.ParentArticle.IsAssigned()
}

// WithID returns a copy of a carrying the given key.
func (a Article) WithID(id ID[Article]) Article {
	a.ID = id
	return a
}

// RecurrentCopy derives the successor of a recurring article.
// The copy is unpersisted, points back at a as its parent, and takes its
// deadline and archive date from a's recurrence info. Its own recurrence is
// left unset; a later edit decides whether the chain continues.
// ok is false when a is not recurrent.
func (a Article) RecurrentCopy() (child Article, ok bool) {
	if a.RecurrentInfo == nil {
		return Article{}, false
	}

	child = a
	child.ID = ID[Article]{}
	child.ParentArticle = a.ID
	child.ChildArticle = ID[Article]{}
	child.ApplicationDeadline = a.RecurrentInfo.ApplicationDeadline
	child.ArchiveDate = a.RecurrentInfo.ArchiveDate
	child.RecurrentInfo = nil
	return child, true
}
