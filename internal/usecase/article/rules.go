package article

import (
	"context"
	"fmt"
	"strings"

	"funding-catalog/internal/domain/entity"
	"funding-catalog/internal/validation"
)

// Rule names. They are stable and may be passed to Validator.Without.
const (
	RuleBlankTitle             = "BlankTitle"
	RuleInvalidApplicationDate = "InvalidApplicationDate"
	RuleUnknownEnumValue       = "UnknownEnumValue"
	RuleParentRelation         = "ParentRelation"
)

// Validator is the article rule set.
type Validator = validation.Validator[entity.Article, Violation]

// Lookup resolves an article by key; (nil, nil) means absent.
type Lookup interface {
	ByID(ctx context.Context, id entity.ID[entity.Article]) (*entity.Article, error)
}

// NewValidator returns the full article rule set in its canonical order.
// lookup backs the parent relation check.
func NewValidator(lookup Lookup) *Validator {
	return validation.MustNew(
		blankTitle(),
		invalidApplicationDate(),
		unknownEnumValue(),
		parentRelation(lookup),
	)
}

type articleRule = validation.Rule[entity.Article, Violation]

func pass() validation.Outcome[Violation] {
	return validation.Valid[Violation]()
}

func fail(v Violation) validation.Outcome[Violation] {
	return validation.Invalid(v)
}

func blankTitle() articleRule {
	return articleRule{
		Name: RuleBlankTitle,
		Check: validation.Pure(func(a entity.Article) validation.Outcome[Violation] {
			if strings.TrimSpace(a.Title) == "" {
				return fail(BlankFieldViolation{Name: "title"})
			}
			return pass()
		}),
	}
}

func invalidApplicationDate() articleRule {
	return articleRule{
		Name: RuleInvalidApplicationDate,
		Check: validation.Pure(func(a entity.Article) validation.Outcome[Violation] {
			if !a.ApplicationDeadline.Before(a.ArchiveDate) {
				return fail(InvalidApplicationDateViolation{
					ApplicationDeadline: a.ApplicationDeadline,
					ArchiveDate:         a.ArchiveDate,
				})
			}
			return pass()
		}),
	}
}

// unknownEnumValue reports the first classification outside its set.
func unknownEnumValue() articleRule {
	return articleRule{
		Name: RuleUnknownEnumValue,
		Check: validation.Pure(func(a entity.Article) validation.Outcome[Violation] {
			switch {
			case !a.Rubric.IsValid():
				return fail(UnknownEnumViolation{Name: "rubric", Value: string(a.Rubric)})
			case !a.Priority.IsValid():
				return fail(UnknownEnumViolation{Name: "priority", Value: string(a.Priority)})
			case !a.TargetGroup.IsValid():
				return fail(UnknownEnumViolation{Name: "targetGroup", Value: string(a.TargetGroup)})
			case !a.SupportType.IsValid():
				return fail(UnknownEnumViolation{Name: "supportType", Value: string(a.SupportType)})
			case !a.Subject.IsValid():
				return fail(UnknownEnumViolation{Name: "subject", Value: string(a.Subject)})
			case !a.State.IsValid():
				return fail(UnknownEnumViolation{Name: "state", Value: string(a.State)})
			}
			return pass()
		}),
	}
}

// parentRelation requires a referenced parent to exist and to point back at a.
func parentRelation(lookup Lookup) articleRule {
	return articleRule{
		Name: RuleParentRelation,
		Check: func(ctx context.Context, a entity.Article) (validation.Outcome[Violation], error) {
			if !a.HasParent() {
				return pass(), nil
			}
			parent, err := lookup.ByID(ctx, a.ParentArticle)
			if err != nil {
				return validation.Outcome[Violation]{}, fmt.Errorf("lookup parent %s: %w", a.ParentArticle, err)
			}
			switch {
			case parent == nil:
				return fail(MissingArticleViolation{ID: a.ParentArticle}), nil
			case !parent.HasChild():
				return fail(AsymmetricRelationViolation{Parent: a.ParentArticle, Child: a.ID}), nil
			case parent.ChildArticle != a.ID:
				return fail(InvalidRelationViolation{
					Parent: a.ParentArticle,
					Child:  a.ID,
					Actual: parent.ChildArticle,
				}), nil
			}
			return pass(), nil
		},
	}
}
