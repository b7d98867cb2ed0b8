package api

// Language is a dictionary language code.
type Language string

// Supported languages.
const (
	English Language = "en"
	Yoruba  Language = "yo"
)

// Envelope is the response shape shared by every backend endpoint.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// Result converts the envelope into its payload or an *APIError.
// An envelope that reports success without data is treated as a failure.
func (e Envelope[T]) Result() (T, error) {
	if e.Success && e.Data != nil {
		return *e.Data, nil
	}
	var zero T
	return zero, &APIError{Status: e.Status, Message: e.Message}
}

// TranslationRequest is the body of POST /api/translate.
type TranslationRequest struct {
	Text       string   `json:"text"`
	SourceLang Language `json:"source_lang"`
	TargetLang Language `json:"target_lang"`
}

// NewTranslationRequest builds an English to Yoruba request for text.
func NewTranslationRequest(text string) TranslationRequest {
	return TranslationRequest{Text: text, SourceLang: English, TargetLang: Yoruba}
}

// Translation is the payload of a successful translation.
type Translation struct {
	Lines      []string `json:"translation"`
	SourceWord string   `json:"source_word"`
	ToLanguage Language `json:"to_language"`
}

// DailyWord is the payload of GET /api/daily-word.
type DailyWord struct {
	YorubaWord  string `json:"yoruba_word"`
	EnglishWord string `json:"english_word"`
}

// Proverb is the payload of GET /api/proverb.
type Proverb struct {
	YorubaText  string `json:"yoruba_text"`
	EnglishText string `json:"english_text"`
}

// BulkUploadRequest is the body of POST /api/admin/bulk-upload.
type BulkUploadRequest struct {
	TextInput string `json:"text_input"`
	DryRun    bool   `json:"dry_run"`
}

// WordPair is one accepted english/yoruba pair.
type WordPair struct {
	English string `json:"english"`
	Yoruba  string `json:"yoruba"`
}

// FailedLine is one rejected input line and the reason it was rejected.
type FailedLine struct {
	Line   string `json:"line"`
	Reason string `json:"reason"`
}

// BulkUploadResult is the payload of a bulk upload.
type BulkUploadResult struct {
	SuccessfulPairs []WordPair   `json:"successful_pairs"`
	FailedPairs     []FailedLine `json:"failed_pairs"`
	DryRun          bool         `json:"dry_run"`
}
