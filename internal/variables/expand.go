package variables

import "strings"

// Expander substitutes resolved tokens in a single pass. Values that happen
// to look like tokens are not expanded again.
type Expander struct {
	replacer *strings.Replacer
}

func NewExpander(subject Subject) *Expander {
	values := Resolve(subject)
	pairs := make([]string, 0, len(values)*2)
	for token, value := range values {
		pairs = append(pairs, token, value)
	}
	return &Expander{replacer: strings.NewReplacer(pairs...)}
}

func (e *Expander) Expand(text string) string {
	if e == nil || text == "" {
		return text
	}
	return e.replacer.Replace(text)
}

// Expand is a convenience for a one-off expansion.
func Expand(text string, subject Subject) string {
	return NewExpander(subject).Expand(text)
}
