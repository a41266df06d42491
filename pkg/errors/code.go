package errors

import "net/http"

// ErrorCode identifies a failure across the API, the logs and the reveal CLI.
type ErrorCode int

// Ranges:
// 10000-10999 system and common
// 11000-11099 tokens
// 14000-14099 contests
// 14100-14199 archives and ingest
// 14200-14299 sites and secrets
// 14300-14399 revelation
// 16000-16099 api keys
const (
	Success ErrorCode = 10000

	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Conflict            ErrorCode = 10009

	DatabaseError      ErrorCode = 10100
	CacheError         ErrorCode = 10200
	RequiredFieldEmpty ErrorCode = 10303

	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005

	ContestNotFound      ErrorCode = 14000
	ContestNotStarted    ErrorCode = 14001
	ContestAlreadyExists ErrorCode = 14002
	UnknownTeam          ErrorCode = 14004
	UnknownProblem       ErrorCode = 14005

	ArchiveDecodeFailed ErrorCode = 14100
	ArchiveEntryMissing ErrorCode = 14101
	InvalidVerdictCode  ErrorCode = 14102
	ArchiveFetchFailed  ErrorCode = 14103

	SiteNotFound      ErrorCode = 14200
	SiteConfigInvalid ErrorCode = 14201
	SecretInvalid     ErrorCode = 14202

	RevelationStateCorrupt ErrorCode = 14301
	RevealSessionNotFound  ErrorCode = 14302
	RevealActionUnknown    ErrorCode = 14303

	ApiKeyMissing   ErrorCode = 16001
	ApiKeyIncorrect ErrorCode = 16002
)

type codeInfo struct {
	message string
	status  int
}

var codes = map[ErrorCode]codeInfo{
	Success: {"Success", http.StatusOK},

	InternalServerError: {"Internal server error", http.StatusInternalServerError},
	InvalidParams:       {"Invalid parameters", http.StatusBadRequest},
	NotFound:            {"Resource not found", http.StatusNotFound},
	Unauthorized:        {"Unauthorized access", http.StatusUnauthorized},
	TooManyRequests:     {"Too many requests, please try again later", http.StatusTooManyRequests},
	ServiceUnavailable:  {"Service temporarily unavailable", http.StatusServiceUnavailable},
	Conflict:            {"Resource conflict", http.StatusConflict},

	DatabaseError:      {"Database operation failed", http.StatusInternalServerError},
	CacheError:         {"Cache operation failed", http.StatusInternalServerError},
	RequiredFieldEmpty: {"Required field is empty", http.StatusBadRequest},

	TokenExpired:          {"Token has expired", http.StatusUnauthorized},
	TokenInvalid:          {"Invalid token", http.StatusUnauthorized},
	TokenGenerationFailed: {"Failed to generate token", http.StatusInternalServerError},

	ContestNotFound:      {"Contest not found", http.StatusNotFound},
	ContestNotStarted:    {"Contest has not started yet", http.StatusNotFound},
	ContestAlreadyExists: {"Contest already exists", http.StatusConflict},
	UnknownTeam:          {"Team not found in contest", http.StatusBadRequest},
	UnknownProblem:       {"Problem not found in contest", http.StatusBadRequest},

	ArchiveDecodeFailed: {"Failed to decode contest archive", http.StatusInternalServerError},
	ArchiveEntryMissing: {"Contest archive entry is missing", http.StatusInternalServerError},
	InvalidVerdictCode:  {"Invalid verdict code", http.StatusBadRequest},
	ArchiveFetchFailed:  {"Failed to fetch contest archive", http.StatusInternalServerError},

	SiteNotFound:      {"Site not found", http.StatusNotFound},
	SiteConfigInvalid: {"Invalid site configuration", http.StatusInternalServerError},
	SecretInvalid:     {"Invalid secret", http.StatusUnauthorized},

	RevelationStateCorrupt: {"Revelation state is corrupt", http.StatusInternalServerError},
	RevealSessionNotFound:  {"Reveal session not found", http.StatusNotFound},
	RevealActionUnknown:    {"Unknown reveal action", http.StatusBadRequest},

	ApiKeyMissing:   {"Missing api key", http.StatusUnauthorized},
	ApiKeyIncorrect: {"Incorrect api key", http.StatusUnauthorized},
}

// Message returns the default message for the code.
func (c ErrorCode) Message() string {
	if info, ok := codes[c]; ok {
		return info.message
	}
	return "Unknown error"
}

// HTTPStatus maps the code onto a response status. Unknown codes are 500.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := codes[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}
