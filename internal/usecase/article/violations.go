package article

import (
	"fmt"
	"time"

	"funding-catalog/internal/domain/entity"
)

// Violation is one broken article rule.
// Field names the offending input so callers can attach the message to a form field.
type Violation interface {
	error
	Field() string
}

// BlankFieldViolation reports a required text field that is empty after trimming.
type BlankFieldViolation struct {
	Name string
}

func (v BlankFieldViolation) Field() string { return v.Name }

func (v BlankFieldViolation) Error() string {
	return fmt.Sprintf("%s must not be blank", v.Name)
}

// InvalidApplicationDateViolation reports a deadline that is not before the archive date.
type InvalidApplicationDateViolation struct {
	ApplicationDeadline time.Time
	ArchiveDate         time.Time
}

func (v InvalidApplicationDateViolation) Field() string { return "applicationDeadline" }

func (v InvalidApplicationDateViolation) Error() string {
	return fmt.Sprintf("application deadline %s must be before archive date %s",
		v.ApplicationDeadline.Format(time.DateOnly), v.ArchiveDate.Format(time.DateOnly))
}

// UnknownEnumViolation reports a classification value outside its closed set.
type UnknownEnumViolation struct {
	Name  string
	Value string
}

func (v UnknownEnumViolation) Field() string { return v.Name }

func (v UnknownEnumViolation) Error() string {
	return fmt.Sprintf("%s has unknown value %q", v.Name, v.Value)
}

// MissingArticleViolation reports a parent reference to a row that does not exist.
type MissingArticleViolation struct {
	ID entity.ID[entity.Article]
}

func (v MissingArticleViolation) Field() string { return "parentArticle" }

func (v MissingArticleViolation) Error() string {
	return fmt.Sprintf("parent article %s does not exist", v.ID)
}

// AsymmetricRelationViolation reports a parent that has no child recorded.
type AsymmetricRelationViolation struct {
	Parent entity.ID[entity.Article]
	Child  entity.ID[entity.Article]
}

func (v AsymmetricRelationViolation) Field() string { return "parentArticle" }

func (v AsymmetricRelationViolation) Error() string {
	return fmt.Sprintf("parent article %s does not acknowledge child %s", v.Parent, v.Child)
}

// InvalidRelationViolation reports a parent whose child pointer names another article.
type InvalidRelationViolation struct {
	Parent entity.ID[entity.Article]
	Child  entity.ID[entity.Article]
	Actual entity.ID[entity.Article]
}

func (v InvalidRelationViolation) Field() string { return "parentArticle" }

func (v InvalidRelationViolation) Error() string {
	return fmt.Sprintf("parent article %s points to child %s, not %s", v.Parent, v.Actual, v.Child)
}
