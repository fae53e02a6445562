package domain

import "encoding/json"

// ReplyOutcome tags a ReplyResult.
type ReplyOutcome int

const (
	ReplySucceeded ReplyOutcome = iota
	ReplyRejected
	ReplyMalformed
)

// ReplyResult is the decoded answer of a reply endpoint: either a success
// with its raw payload, or a failure with an error code.
type ReplyResult struct {
	Outcome    ReplyOutcome
	Payload    json.RawMessage
	ErrorCode  string
	HTTPStatus int
}

// Success builds a successful result.
func Success(status int, payload json.RawMessage) ReplyResult {
	return ReplyResult{Outcome: ReplySucceeded, Payload: payload, HTTPStatus: status}
}

// Failure builds a result rejected by the server.
func Failure(status int, code string) ReplyResult {
	return ReplyResult{Outcome: ReplyRejected, ErrorCode: code, HTTPStatus: status}
}

// Malformed builds a result whose body could not be decoded.
func Malformed(status int, fallback string) ReplyResult {
	return ReplyResult{Outcome: ReplyMalformed, ErrorCode: fallback, HTTPStatus: status}
}

// OK reports whether the reply was accepted.
func (r ReplyResult) OK() bool {
	return r.Outcome == ReplySucceeded
}
