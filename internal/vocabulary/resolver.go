package vocabulary

import "strings"

// Action is what the resolver wants done with a widget name.
type Action int

const (
	// Keep leaves the name as it is.
	Keep Action = iota
	// Rename asks for the name to be replaced by Decision.Name.
	Rename
)

func (a Action) String() string {
	if a == Rename {
		return "rename"
	}
	return "keep"
}

// Reasons reported with each decision.
const (
	ReasonExact        = "exact match"
	ReasonCaseFold     = "case-insensitive match"
	ReasonPlaceholder  = "blank or numeric name"
	ReasonUnrecognized = "not in vocabulary"
)

// Decision is the outcome of resolving one name.
type Decision struct {
	Action Action
	Name   string // resulting name; the input name when Action is Keep
	Reason string
}

// Resolver maps widget names onto the canonical casing of a vocabulary. It
// never produces a name the vocabulary does not contain.
type Resolver struct {
	vocab *Vocabulary
}

// NewResolver creates a resolver over vocab. A nil vocab behaves as empty.
func NewResolver(vocab *Vocabulary) *Resolver {
	if vocab == nil {
		vocab = Empty()
	}
	return &Resolver{vocab: vocab}
}

// Vocabulary returns the vocabulary the resolver consults.
func (r *Resolver) Vocabulary() *Vocabulary {
	return r.vocab
}

// Resolve applies, in order: exact match keeps the name, a case-insensitive
// match renames to the canonical casing, blank or all-digit names are kept,
// and anything else is kept.
func (r *Resolver) Resolve(name string) Decision {
	if r.vocab.Contains(name) {
		return Decision{Action: Keep, Name: name, Reason: ReasonExact}
	}
	if canonical, ok := r.vocab.Canonical(name); ok && canonical != name {
		return Decision{Action: Rename, Name: canonical, Reason: ReasonCaseFold}
	}
	if isPlaceholder(name) {
		return Decision{Action: Keep, Name: name, Reason: ReasonPlaceholder}
	}
	return Decision{Action: Keep, Name: name, Reason: ReasonUnrecognized}
}

func isPlaceholder(name string) bool {
	for _, r := range strings.TrimSpace(name) {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
