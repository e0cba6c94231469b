package repository

import (
	"context"
	"errors"
	"time"

	"funding-catalog/internal/domain/entity"
)

// ErrAlreadyLinked is returned by CreateLinkedChild when the parent gained a
// child between selection and linking.
var ErrAlreadyLinked = errors.New("parent article already has a child")

// ArticleOrder selects the listing order.
type ArticleOrder int

const (
	// OrderByDeadline lists the soonest application deadline first.
	OrderByDeadline ArticleOrder = iota
	// OrderByArchiveDateDesc lists the most recently archived first.
	OrderByArchiveDateDesc
)

// ArticleFilter narrows article queries. Zero fields do not filter.
// Values within one slice are alternatives; distinct fields must all match.
type ArticleFilter struct {
	Rubrics      []entity.Rubric
	SupportTypes []entity.SupportType
	TargetGroups []entity.TargetGroup
	States       []entity.ArticleState
	Subjects     []entity.Subject

	// Keyword matches title or text, case-insensitively.
	Keyword string

	Recurrent          *bool
	DeadlineOnOrBefore *time.Time
	ArchivedBefore     *time.Time
	// WithoutChild keeps only articles that have not spawned a successor.
	WithoutChild bool

	Order ArticleOrder
}

// RecurrenceCandidates is the filter for articles due to spawn a successor at now.
func RecurrenceCandidates(now time.Time) ArticleFilter {
	recurrent := true
	return ArticleFilter{
		Recurrent:          &recurrent,
		DeadlineOnOrBefore: &now,
		WithoutChild:       true,
	}
}

// ArticleRepository stores articles.
// Delete also clears the parent and child pointers other rows hold to the
// deleted article, in the same transaction.
type ArticleRepository interface {
	Reader[entity.Article, ArticleFilter]
	Writer[entity.Article]

	// CreateLinkedChild inserts child and links it to parentID as one unit of
	// work: the parent's child pointer is set and its recurrence flag cleared,
	// guarded by the parent still having no child. Returns ErrAlreadyLinked
	// when the guard fails; nothing is written then.
	CreateLinkedChild(ctx context.Context, parentID entity.ID[entity.Article], child entity.Article) (entity.Article, error)
}
