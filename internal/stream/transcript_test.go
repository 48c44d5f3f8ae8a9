package stream

import "testing"

func TestTranscriptAppend(t *testing.T) {
	cases := []struct {
		name   string
		chunks []string
		want   string
	}{
		{"word after word", []string{"hello", "world"}, "hello world"},
		{"punctuation attaches", []string{"hello", "."}, "hello."},
		{"comma attaches", []string{"Hello", ",", " world"}, "Hello, world"},
		{"empty contributes nothing", []string{"hello", "", "world"}, "hello world"},
		{"whitespace contributes nothing", []string{"hello", "   ", "\t\n"}, "hello"},
		{"first chunk gets no space", []string{"hello"}, "hello"},
		{"closing bracket attaches", []string{"done", ")"}, "done)"},
		{"question mark attaches", []string{"really", "?"}, "really?"},
		{"colon attaches", []string{"note", ":"}, "note:"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var tr Transcript
			for _, chunk := range c.chunks {
				tr.Append(chunk)
			}
			if got := tr.String(); got != c.want {
				t.Errorf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestTranscriptReset(t *testing.T) {
	var tr Transcript
	tr.Append("hello")
	if tr.Empty() {
		t.Error("transcript should not be empty")
	}
	tr.Reset()
	if !tr.Empty() || tr.String() != "" {
		t.Error("transcript should be empty after Reset")
	}
}
