package transform

// MandarinMarker prefixes every TranslateStub output.
const MandarinMarker = "[Translated to Mandarin]: "

// TranslateStub stands in for machine translation. It is deterministic and offline.
func TranslateStub(text string) string {
	return MandarinMarker + text
}

// Identity returns text unchanged.
func Identity(text string) string {
	return text
}
