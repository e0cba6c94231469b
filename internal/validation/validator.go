// Package validation runs named rule sets against a candidate value and
// collects every violation instead of stopping at the first one.
package validation

import (
	"context"
	"fmt"
	"slices"

	"funding-catalog/internal/domain/entity"
)

// Outcome is the verdict of one rule: valid, or invalid with one violation.
type Outcome[V error] struct {
	violation V
	invalid   bool
}

// Valid is the passing outcome.
func Valid[V error]() Outcome[V] {
	return Outcome[V]{}
}

// Invalid is the failing outcome carrying v.
func Invalid[V error](v V) Outcome[V] {
	return Outcome[V]{violation: v, invalid: true}
}

// Violation returns the violation and whether the outcome is invalid.
func (o Outcome[V]) Violation() (V, bool) {
	return o.violation, o.invalid
}

// RuleFunc checks one property of value.
// A non-nil error means the rule could not be evaluated (a lookup failed);
// it is never used to report a violation.
type RuleFunc[T any, V error] func(ctx context.Context, value T) (Outcome[V], error)

// Pure lifts a rule that needs no lookups.
func Pure[T any, V error](check func(value T) Outcome[V]) RuleFunc[T, V] {
	return func(_ context.Context, value T) (Outcome[V], error) {
		return check(value), nil
	}
}

// Rule is a named RuleFunc.
type Rule[T any, V error] struct {
	Name  string
	Check RuleFunc[T, V]
}

// Result is the outcome of running a full rule set.
// Value is the candidate exactly as it was passed in.
type Result[T any, V error] struct {
	Value      T
	Violations []V
}

// IsValid reports whether no rule failed.
func (r Result[T, V]) IsValid() bool {
	return len(r.Violations) == 0
}

// Err returns nil when valid, otherwise an *entity.ValidationFailedError
// listing the violations in rule order.
func (r Result[T, V]) Err() error {
	if r.IsValid() {
		return nil
	}
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = v
	}
	return &entity.ValidationFailedError{Violations: errs}
}

// Validator is an ordered, immutable set of rules for T.
type Validator[T any, V error] struct {
	rules []Rule[T, V]
}

// New builds a validator from rules. Rule names must be unique.
func New[T any, V error](rules ...Rule[T, V]) (*Validator[T, V], error) {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if r.Name == "" {
			return nil, fmt.Errorf("validation: rule without name")
		}
		if r.Check == nil {
			return nil, fmt.Errorf("validation: rule %q has no check", r.Name)
		}
		if _, dup := seen[r.Name]; dup {
			return nil, fmt.Errorf("validation: duplicate rule %q", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return &Validator[T, V]{rules: slices.Clone(rules)}, nil
}

// MustNew is New for static rule sets; it panics on a malformed set.
func MustNew[T any, V error](rules ...Rule[T, V]) *Validator[T, V] {
	v, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return v
}

// Rules returns the rule names in registration order.
func (v *Validator[T, V]) Rules() []string {
	names := make([]string, len(v.rules))
	for i, r := range v.rules {
		names[i] = r.Name
	}
	return names
}

// Without returns a validator that skips the named rules.
func (v *Validator[T, V]) Without(names ...string) *Validator[T, V] {
	kept := make([]Rule[T, V], 0, len(v.rules))
	for _, r := range v.rules {
		if !slices.Contains(names, r.Name) {
			kept = append(kept, r)
		}
	}
	return &Validator[T, V]{rules: kept}
}

// Validate runs every rule against value and accumulates the violations in
// registration order. It stops early only when a rule fails to evaluate or
// ctx is done; that error is returned with the rule name attached.
func (v *Validator[T, V]) Validate(ctx context.Context, value T) (Result[T, V], error) {
	res := Result[T, V]{Value: value}
	for _, r := range v.rules {
		if err := ctx.Err(); err != nil {
			return Result[T, V]{}, err
		}
		out, err := r.Check(ctx, value)
		if err != nil {
			return Result[T, V]{}, fmt.Errorf("rule %s: %w", r.Name, err)
		}
		if violation, invalid := out.Violation(); invalid {
			res.Violations = append(res.Violations, violation)
		}
	}
	return res, nil
}
