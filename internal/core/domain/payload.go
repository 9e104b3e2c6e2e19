package domain

import "strings"

// IngestionErrorPrefix marks a payload part whose document could not be read.
const IngestionErrorPrefix = "[Ingestion Error]"

// AssetValueColumn is the spreadsheet column summed into net worth.
const AssetValueColumn = "Value (AED)"

// AssetRecord is one spreadsheet row keyed by header. Values are numbers or raw strings.
type AssetRecord map[string]any

// RawPayload is the loosely typed output of document ingestion. Empty parts were not supplied.
type RawPayload struct {
	Assets      []AssetRecord `json:"assets,omitempty"`
	AssetsError string        `json:"assets_error,omitempty"`
	BankText    string        `json:"bank_text,omitempty"`
	IDText      string        `json:"id_text,omitempty"`
	ResumeText  string        `json:"resume_text,omitempty"`
}

// IngestionError renders a reader failure in the error-flagged form stored in the payload.
func IngestionError(document string, err error) string {
	if err == nil {
		return ""
	}
	return IngestionErrorPrefix + " " + document + ": " + err.Error()
}

// IsIngestionError reports whether text is an error marker rather than document content.
func IsIngestionError(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), IngestionErrorPrefix)
}

// UsableText returns the text and true when it carries document content.
func UsableText(text string) (string, bool) {
	if strings.TrimSpace(text) == "" || IsIngestionError(text) {
		return "", false
	}
	return text, true
}

// DocumentSet names the four applicant documents by storage key or path. Empty keys are skipped.
type DocumentSet struct {
	Assets        string `json:"assets,omitempty"`
	BankStatement string `json:"bank_statement,omitempty"`
	IDCard        string `json:"id_card,omitempty"`
	Resume        string `json:"resume,omitempty"`
}

func (s DocumentSet) Empty() bool {
	return strings.TrimSpace(s.Assets) == "" &&
		strings.TrimSpace(s.BankStatement) == "" &&
		strings.TrimSpace(s.IDCard) == "" &&
		strings.TrimSpace(s.Resume) == ""
}
