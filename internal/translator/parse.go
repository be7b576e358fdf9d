package translator

import "strings"

// Labels the translation prompt pins in the model output. The parser splits
// on these literal strings; they are part of the prompt contract, not
// user-visible configuration.
const (
	translationLabel = "Перевод:"
	examplesLabel    = "Примеры:"
)

// ParsedTranslation is the structured form of a raw translator response.
type ParsedTranslation struct {
	// Translation is the target-language rendering of the source text.
	Translation string

	// Examples is the block of numbered usage example lines, verbatim.
	// Empty when the response carried no examples section.
	Examples string
}

// ParseTranslation splits a raw translator response on the fixed labels.
// A response without the translation label is treated as being entirely the
// translation, with no examples.
func ParseTranslation(raw string) ParsedTranslation {
	_, after, found := strings.Cut(raw, translationLabel)
	if !found {
		return ParsedTranslation{Translation: strings.TrimSpace(raw)}
	}

	translation, examples, found := strings.Cut(after, examplesLabel)
	if !found {
		return ParsedTranslation{Translation: strings.TrimSpace(after)}
	}
	return ParsedTranslation{
		Translation: strings.TrimSpace(translation),
		Examples:    strings.TrimSpace(examples),
	}
}

// FirstWord returns the first whitespace-delimited token of text, used as
// the image-search keyword when extraction fails.
func FirstWord(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	return fields[0]
}
