package utils

// Server-side messages only: health text and localized API error messages
// keyed "err.<reason>". UI strings live in the frontend.

var translations = map[string]map[string]string{
	"en": {
		"health.ok": "ok",

		"err.internal":                     "Internal error",
		"err.invalid_body":                 "Request body is not valid JSON",
		"err.invalid_question_type":        "Unsupported question type",
		"err.invalid_credentials":          "Invalid email or password",
		"err.unauthenticated":              "Authentication required",
		"err.forbidden":                    "You are not allowed to do this",
		"err.email_exists":                 "An account with this email already exists",
		"err.survey_not_found":             "Survey not found",
		"err.question_not_found":           "Question not found",
		"err.draft_not_found":              "Draft not found",
		"err.user_not_found":               "User not found",
		"err.survey_archived":              "Survey is archived",
		"err.survey_not_archived":          "Survey is not archived",
		"err.invalid_state":                "This action is not possible in the current survey state",
		"err.survey_expired":               "This survey has expired",
		"err.survey_not_yet_active":        "This survey is not active yet",
		"err.survey_not_published":         "This survey is not accepting responses",
		"err.response_limit_reached":       "This survey has reached its response limit",
		"err.invalid_invite_token":         "Invalid invite link",
		"err.invite_mismatch":              "This invite belongs to a different survey",
		"err.invite_expired":               "This invite has expired",
		"err.invite_exhausted":             "This invite has already been used",
		"err.invite_required":              "An invite is required to answer this survey",
		"err.author_cannot_respond":        "Authors cannot answer their own survey",
		"err.single_response_violation":    "You have already answered this survey",
		"err.duplicate_anonymous_response": "A response from your address already exists",
	},
	"pl": {
		"health.ok": "w porządku",

		"err.internal":                     "Błąd wewnętrzny",
		"err.invalid_body":                 "Treść żądania nie jest poprawnym JSON",
		"err.invalid_question_type":        "Nieobsługiwany typ pytania",
		"err.invalid_credentials":          "Nieprawidłowy e-mail lub hasło",
		"err.unauthenticated":              "Wymagane uwierzytelnienie",
		"err.forbidden":                    "Brak uprawnień do tej operacji",
		"err.email_exists":                 "Konto z tym adresem e-mail już istnieje",
		"err.survey_not_found":             "Nie znaleziono ankiety",
		"err.question_not_found":           "Nie znaleziono pytania",
		"err.draft_not_found":              "Nie znaleziono wersji roboczej",
		"err.user_not_found":               "Nie znaleziono użytkownika",
		"err.survey_archived":              "Ankieta jest zarchiwizowana",
		"err.survey_not_archived":          "Ankieta nie jest zarchiwizowana",
		"err.invalid_state":                "Ta operacja nie jest możliwa w obecnym stanie ankiety",
		"err.survey_expired":               "Ankieta wygasła",
		"err.survey_not_yet_active":        "Ankieta nie jest jeszcze aktywna",
		"err.survey_not_published":         "Ankieta nie przyjmuje odpowiedzi",
		"err.response_limit_reached":       "Ankieta osiągnęła limit odpowiedzi",
		"err.invalid_invite_token":         "Nieprawidłowy link z zaproszeniem",
		"err.invite_mismatch":              "To zaproszenie dotyczy innej ankiety",
		"err.invite_expired":               "Zaproszenie wygasło",
		"err.invite_exhausted":             "Zaproszenie zostało już wykorzystane",
		"err.invite_required":              "Do wypełnienia tej ankiety wymagane jest zaproszenie",
		"err.author_cannot_respond":        "Autor nie może odpowiadać na własną ankietę",
		"err.single_response_violation":    "Ta ankieta została już przez Ciebie wypełniona",
		"err.duplicate_anonymous_response": "Odpowiedź z Twojego adresu już istnieje",
	},
}

// T returns the translated string for key in locale; falls back to English,
// then to the key itself.
func T(locale, key string) string {
	if v, ok := Lookup(locale, key); ok {
		return v
	}
	return key
}

// Lookup reports whether key has a message in locale or in English.
func Lookup(locale, key string) (string, bool) {
	if v, ok := translations[locale][key]; ok {
		return v, true
	}
	v, ok := translations[DefaultLocale][key]
	return v, ok
}
