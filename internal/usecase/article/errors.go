// Package article provides use cases for managing funding articles.
// Every write runs the article rule set first and is rejected with the full
// list of violations when any rule fails.
package article

import "errors"

// Sentinel errors for article use case operations.
var (
	// ErrInvalidArticleID indicates that the operation needs a persisted
	// article but was given an unassigned key.
	ErrInvalidArticleID = errors.New("invalid article ID")

	// ErrIDAlreadyAssigned indicates a create request for an article that
	// already carries a key.
	ErrIDAlreadyAssigned = errors.New("article already has an ID")
)
