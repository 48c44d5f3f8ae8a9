package stream

import (
	"strings"
)

// closingPunctuation is the set of characters that must never get a
// space inserted in front of them when joining chunk transcripts.
const closingPunctuation = ".,!?;:)}]"

// Transcript accumulates chunk transcriptions in capture order.
// Not safe for concurrent use; the session's single worker owns it.
type Transcript struct {
	b strings.Builder
}

// Append joins text onto the transcript. Whitespace-only text
// contributes nothing. A separating space is inserted only when the
// transcript already has content and the new text does not begin with
// closing punctuation, so fragments like "," attach to the previous
// chunk instead of floating.
func (t *Transcript) Append(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}
	if t.b.Len() > 0 && !strings.ContainsRune(closingPunctuation, rune(trimmed[0])) {
		t.b.WriteByte(' ')
	}
	t.b.WriteString(trimmed)
}

func (t *Transcript) String() string {
	return t.b.String()
}

func (t *Transcript) Empty() bool {
	return t.b.Len() == 0
}

func (t *Transcript) Reset() {
	t.b.Reset()
}
