package errors

// ErrorCode identifies an application error category in responses and logs.
type ErrorCode int

const (
	ErrorCode_HTTP_OK ErrorCode = 0

	// General
	ErrorCode_INTERNAL         ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT ErrorCode = 1001
	ErrorCode_NOT_FOUND        ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS   ErrorCode = 1003
	ErrorCode_INVALID_PAYLOAD  ErrorCode = 1004

	// Artifact lifecycle
	ErrorCode_ARTIFACT_NOT_FOUND ErrorCode = 2000
	ErrorCode_ANALYSIS_NOT_FOUND ErrorCode = 2001

	// Pipeline stages
	ErrorCode_EXTRACTION_FAILED     ErrorCode = 3000
	ErrorCode_CLASSIFICATION_FAILED ErrorCode = 3001
	ErrorCode_NORMALIZATION_FAILED  ErrorCode = 3002
	ErrorCode_PROCESSING_FAILED     ErrorCode = 3003

	// Integrations
	ErrorCode_STORAGE_FAILED        ErrorCode = 4000
	ErrorCode_CACHE_FAILED          ErrorCode = 4001
	ErrorCode_AI_SERVICE_FAILED     ErrorCode = 4002
	ErrorCode_DB_TRANSACTION_FAILED ErrorCode = 4003
	ErrorCode_DB_QUERY_FAILED       ErrorCode = 4004
)

var codeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:               "OK",
	ErrorCode_INTERNAL:              "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:      "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:             "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:        "ALREADY_EXISTS",
	ErrorCode_INVALID_PAYLOAD:       "INVALID_PAYLOAD",
	ErrorCode_ARTIFACT_NOT_FOUND:    "ARTIFACT_NOT_FOUND",
	ErrorCode_ANALYSIS_NOT_FOUND:    "ANALYSIS_NOT_FOUND",
	ErrorCode_EXTRACTION_FAILED:     "EXTRACTION_FAILED",
	ErrorCode_CLASSIFICATION_FAILED: "CLASSIFICATION_FAILED",
	ErrorCode_NORMALIZATION_FAILED:  "NORMALIZATION_FAILED",
	ErrorCode_PROCESSING_FAILED:     "PROCESSING_FAILED",
	ErrorCode_STORAGE_FAILED:        "STORAGE_FAILED",
	ErrorCode_CACHE_FAILED:          "CACHE_FAILED",
	ErrorCode_AI_SERVICE_FAILED:     "AI_SERVICE_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED: "DB_TRANSACTION_FAILED",
	ErrorCode_DB_QUERY_FAILED:       "DB_QUERY_FAILED",
}

func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
