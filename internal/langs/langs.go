// Package langs maps between human language names and ISO codes.
// Different upstream services expect different formats (names vs codes),
// so the converters here are per-service.
package langs

import (
	"sort"
	"strings"
)

const Auto = "auto"

var nameToCode = map[string]string{
	"autodetect": "auto",
	"auto":       "auto",
	"shona":      "sn",
	"english":    "en",
	"chinese":    "zh",
	"ndebele":    "nr",
}

var codeToName = map[string]string{
	"auto": "autodetect",
	"sn":   "shona",
	"en":   "english",
	"zh":   "chinese",
	"nr":   "ndebele",
}

// Code converts a language name to its ISO code, falling back to "auto".
func Code(language string) string {
	if code, ok := nameToCode[strings.ToLower(language)]; ok {
		return code
	}
	return Auto
}

// Name converts an ISO code to its language name, falling back to "autodetect".
func Name(code string) string {
	if name, ok := codeToName[strings.ToLower(code)]; ok {
		return name
	}
	return "autodetect"
}

// Supported reports whether the given name or code is a known language.
func Supported(language string) bool {
	l := strings.ToLower(language)
	_, byName := nameToCode[l]
	_, byCode := codeToName[l]
	return byName || byCode
}

// DisplayName returns a capitalized name for UI lists.
func DisplayName(language string) string {
	name := Name(Code(language))
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// List returns the supported languages sorted by name, with autodetect
// first when included.
func List(includeAuto bool) []Language {
	var out []Language
	for name, code := range nameToCode {
		if name == "auto" {
			continue // alias of autodetect
		}
		if !includeAuto && code == "auto" {
			continue
		}
		out = append(out, Language{Name: strings.ToUpper(name[:1]) + name[1:], Code: code})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code == "auto" {
			return true
		}
		if out[j].Code == "auto" {
			return false
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ForTranscription: the transcription service takes a code.
func ForTranscription(language string) string {
	return Code(language)
}

// ForTranslation: both sides are codes.
func ForTranslation(source, target string) (string, string) {
	return Code(source), Code(target)
}

// ForSpeechToSpeech: the source side is a code, the target side a name.
func ForSpeechToSpeech(source, target string) (string, string) {
	return Code(source), Name(Code(target))
}
