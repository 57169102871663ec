package questionbank

import (
	"math/rand"
	"regexp"
)

// Options maps an option label to its text.
type Options map[string]string

// Values returns option texts in label order.
func (o Options) Values() []string {
	out := make([]string, len(OptionLabels))
	for i, label := range OptionLabels {
		out[i] = o[label]
	}
	return out
}

// Label returns the label holding text, if any.
func (o Options) Label(text string) (string, bool) {
	for _, label := range OptionLabels {
		if o[label] == text {
			return label, true
		}
	}
	return "", false
}

// Question is immutable once parsed. Presentation variants are new values.
type Question struct {
	ID            string  `json:"id"`
	OriginalIndex int     `json:"originalIndex"`
	Text          string  `json:"q"`
	Options       Options `json:"opt"`
	Answer        string  `json:"a"`
}

// HasValidAnswer reports whether Answer names one of the option labels.
func (q Question) HasValidAnswer() bool {
	_, ok := q.Options[q.Answer]
	return ok
}

// CorrectText is the text of the correct option, empty when the answer
// label matches nothing.
func (q Question) CorrectText() string {
	return q.Options[q.Answer]
}

// ShuffleOptions returns a copy with option texts permuted and Answer moved
// to the label now holding the original correct text.
func (q Question) ShuffleOptions(rng *rand.Rand) Question {
	correct, valid := q.Options[q.Answer]
	values := q.Options.Values()
	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	opts := make(Options, len(OptionLabels))
	for i, label := range OptionLabels {
		opts[label] = values[i]
	}

	out := q
	out.Options = opts
	if valid {
		if label, ok := opts.Label(correct); ok {
			out.Answer = label
		}
	}
	return out
}

var markerPattern = regexp.MustCompile(`\[(img|icon):([^\]]+)\]`)

// Marker is an inline media directive found in question or option text.
type Marker struct {
	Kind   string `json:"kind"`
	Source string `json:"source"`
}

// Markers lists the [img:..] and [icon:..] directives in text.
func Markers(text string) []Marker {
	var out []Marker
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, Marker{Kind: m[1], Source: m[2]})
	}
	return out
}

// HasMedia reports whether the question or any option carries a media marker.
func (q Question) HasMedia() bool {
	if markerPattern.MatchString(q.Text) {
		return true
	}
	for _, v := range q.Options {
		if markerPattern.MatchString(v) {
			return true
		}
	}
	return false
}
