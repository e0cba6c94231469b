// Package postgres provides PostgreSQL implementations of repository interfaces.
package postgres

import (
	"fmt"
	"strings"

	"funding-catalog/internal/repository"
)

// recurrentCondition is true for rows that read back with recurrence dates.
const recurrentCondition = "(is_recurrent AND recurrent_check_from IS NOT NULL AND next_application_deadline IS NOT NULL AND next_archive_date IS NOT NULL)"

// ArticleQueryBuilder builds WHERE and ORDER BY clauses for article queries.
// The WHERE clause is shared between COUNT and SELECT queries so the total
// always matches the listed rows.
type ArticleQueryBuilder struct{}

// NewArticleQueryBuilder creates a new query builder instance.
func NewArticleQueryBuilder() *ArticleQueryBuilder {
	return &ArticleQueryBuilder{}
}

// BuildWhereClause builds the WHERE clause and arguments for filter.
// Placeholders are numbered from $1. Returns an empty clause when filter is
// the zero value.
func (qb *ArticleQueryBuilder) BuildWhereClause(filter repository.ArticleFilter) (clause string, args []any) {
	var conditions []string

	in := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			args = append(args, v)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")))
	}

	in("rubric", stringsOf(filter.Rubrics))
	in("support_type", stringsOf(filter.SupportTypes))
	in("target_group", stringsOf(filter.TargetGroups))
	in("state", stringsOf(filter.States))
	in("subject", stringsOf(filter.Subjects))

	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		args = append(args, "%"+escapeILIKE(kw)+"%")
		conditions = append(conditions, fmt.Sprintf("(title ILIKE $%d OR text ILIKE $%d)", len(args), len(args)))
	}

	if filter.Recurrent != nil {
		if *filter.Recurrent {
			conditions = append(conditions, recurrentCondition)
		} else {
			conditions = append(conditions, "NOT "+recurrentCondition)
		}
	}

	if filter.DeadlineOnOrBefore != nil {
		args = append(args, *filter.DeadlineOnOrBefore)
		conditions = append(conditions, fmt.Sprintf("application_deadline <= $%d", len(args)))
	}
	if filter.ArchivedBefore != nil {
		args = append(args, *filter.ArchivedBefore)
		conditions = append(conditions, fmt.Sprintf("archive_date < $%d", len(args)))
	}
	if filter.WithoutChild {
		conditions = append(conditions, "child_article IS NULL")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// BuildOrderClause returns the ORDER BY clause for order. Ties are broken by id.
func (qb *ArticleQueryBuilder) BuildOrderClause(order repository.ArticleOrder) string {
	switch order {
	case repository.OrderByArchiveDateDesc:
		return "ORDER BY archive_date DESC, id ASC"
	default:
		return "ORDER BY application_deadline ASC, id ASC"
	}
}

func stringsOf[E ~string](values []E) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// escapeILIKE escapes the ILIKE wildcards and the escape character itself.
func escapeILIKE(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
