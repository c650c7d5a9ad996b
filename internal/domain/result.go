package domain

import "net/http"

// ResultCode is the stable outcome code returned to the webhook caller. The
// codes are part of the wire contract with existing partner integrations and
// must not change.
type ResultCode string

const (
	ResultSuccess          ResultCode = "0000"
	ResultAuthFailed       ResultCode = "1002"
	ResultMethodNotAllowed ResultCode = "1003"
	ResultInvalidParams    ResultCode = "1004"
	ResultInvalidAmount    ResultCode = "1005"
	ResultDuplicateTx      ResultCode = "1006"
	ResultServerError      ResultCode = "9999"
)

type resultMeta struct {
	message string
	status  int
}

var resultTable = map[ResultCode]resultMeta{
	ResultSuccess:          {message: "Success", status: http.StatusOK},
	ResultAuthFailed:       {message: "Authentication failed", status: http.StatusUnauthorized},
	ResultMethodNotAllowed: {message: "Method not allowed", status: http.StatusMethodNotAllowed},
	ResultInvalidParams:    {message: "Missing required parameter", status: http.StatusBadRequest},
	ResultInvalidAmount:    {message: "Invalid amount", status: http.StatusBadRequest},
	ResultDuplicateTx:      {message: "Duplicate transaction", status: http.StatusBadRequest},
	ResultServerError:      {message: "Internal server error", status: http.StatusInternalServerError},
}

// Message returns the default human-readable message for the code.
func (c ResultCode) Message() string {
	if meta, ok := resultTable[c]; ok {
		return meta.message
	}
	return resultTable[ResultServerError].message
}

// HTTPStatus returns the HTTP status the code maps to.
func (c ResultCode) HTTPStatus() int {
	if meta, ok := resultTable[c]; ok {
		return meta.status
	}
	return http.StatusInternalServerError
}
