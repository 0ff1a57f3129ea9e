package language

import "strings"

// Language ties one UI language to the codes each collaborator expects.
type Language struct {
	Name            string
	NativeName      string
	RecognitionTag  string
	SynthesisCode   string
	TranslationCode string
}

const DefaultName = "English"

var table = []Language{
	{Name: "English", NativeName: "English", RecognitionTag: "en-IN", SynthesisCode: "en", TranslationCode: "en"},
	{Name: "Hindi", NativeName: "हिन्दी", RecognitionTag: "hi-IN", SynthesisCode: "hi", TranslationCode: "hi"},
	{Name: "Bengali", NativeName: "বাংলা", RecognitionTag: "bn-IN", SynthesisCode: "bn", TranslationCode: "bn"},
	{Name: "Gujarati", NativeName: "ગુજરાતી", RecognitionTag: "gu-IN", SynthesisCode: "gu", TranslationCode: "gu"},
	{Name: "Kannada", NativeName: "ಕನ್ನಡ", RecognitionTag: "kn-IN", SynthesisCode: "kn", TranslationCode: "kn"},
	{Name: "Malayalam", NativeName: "മലയാളം", RecognitionTag: "ml-IN", SynthesisCode: "ml", TranslationCode: "ml"},
	{Name: "Marathi", NativeName: "मराठी", RecognitionTag: "mr-IN", SynthesisCode: "mr", TranslationCode: "mr"},
	{Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ", RecognitionTag: "pa-Guru-IN", SynthesisCode: "pa", TranslationCode: "pa"},
	{Name: "Tamil", NativeName: "தமிழ்", RecognitionTag: "ta-IN", SynthesisCode: "ta", TranslationCode: "ta"},
	{Name: "Telugu", NativeName: "తెలుగు", RecognitionTag: "te-IN", SynthesisCode: "te", TranslationCode: "te"},
	{Name: "Urdu", NativeName: "اردو", RecognitionTag: "ur-IN", SynthesisCode: "ur", TranslationCode: "ur"},
}

// All returns the table in display order.
func All() []Language {
	out := make([]Language, len(table))
	copy(out, table)
	return out
}

// Lookup accepts the UI name, the recognition tag or the synthesis code.
func Lookup(key string) (Language, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Language{}, false
	}
	for _, l := range table {
		if strings.EqualFold(l.Name, key) ||
			strings.EqualFold(l.RecognitionTag, key) ||
			strings.EqualFold(l.SynthesisCode, key) ||
			l.NativeName == key {
			return l, true
		}
	}
	return Language{}, false
}

func Default() Language {
	l, _ := Lookup(DefaultName)
	return l
}

func (l Language) IsEnglish() bool {
	return l.TranslationCode == "en"
}
