package ocr

import "strings"

// Classifier maps an uploaded document to a coarse form-type label. It is
// deliberately pluggable: the default is a filename/content heuristic, and
// callers may swap in anything that returns an open string label.
type Classifier func(filename, text string) string

// formTypeKeywords maps a label to the tokens that suggest it. Filename
// matches win over content matches.
var formTypeKeywords = []struct {
	label    string
	keywords []string
}{
	{"invoice", []string{"invoice", "bill to", "amount due"}},
	{"receipt", []string{"receipt", "subtotal", "cash tendered"}},
	{"survey", []string{"survey", "questionnaire", "rate your"}},
	{"application", []string{"application", "applicant"}},
	{"registration", []string{"registration", "register"}},
	{"feedback", []string{"feedback", "comments", "suggestions"}},
	{"order", []string{"order form", "purchase order", "quantity"}},
	{"contract", []string{"contract", "agreement", "terms and conditions"}},
}

// ClassifyForm is the default Classifier. It checks the filename first,
// then the extracted text, and returns "unknown" when nothing matches.
func ClassifyForm(filename, text string) string {
	name := strings.ToLower(filename)
	for _, ft := range formTypeKeywords {
		for _, kw := range ft.keywords {
			if strings.Contains(name, kw) {
				return ft.label
			}
		}
	}

	content := strings.ToLower(text)
	for _, ft := range formTypeKeywords {
		for _, kw := range ft.keywords {
			if strings.Contains(content, kw) {
				return ft.label
			}
		}
	}
	return "unknown"
}
