package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/moogar0880/problems"
)

var (
	// ErrInvalidBaseURL indicates the configured API URL cannot be used.
	ErrInvalidBaseURL = errors.New("invalid API base URL")
	// ErrInvalidResponse indicates a success response whose body is not JSON.
	ErrInvalidResponse = errors.New("invalid JSON response")
)

// NetworkError reports a request that could not be sent or whose response
// could not be read.
type NetworkError struct {
	Op   string // HTTP method
	Path string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError reports a 401 or 403 response.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("not authorized (status %d): %s", e.Status, e.Message)
}

// ServerRejected reports any other non-success response. Message comes from
// the response body when the server sent one.
type ServerRejected struct {
	Status  int
	Type    string
	Message string
}

func (e *ServerRejected) Error() string {
	return fmt.Sprintf("server rejected request (status %d): %s", e.Status, e.Message)
}

// IsNetworkError checks if an error is a transport failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError

	return errors.As(err, &ne)
}

// IsAuthError checks if an error is an authentication failure.
func IsAuthError(err error) bool {
	var ae *AuthError

	return errors.As(err, &ae)
}

// IsServerRejected checks if an error is a non-success server response.
func IsServerRejected(err error) bool {
	var sr *ServerRejected

	return errors.As(err, &sr)
}

// messageBody covers the error shapes the workflow API answers with:
// problem+json, {"message": ...} and {"error": ...}.
type messageBody struct {
	problems.Problem

	Message string `json:"message"`
	Error   string `json:"error"`
}

func statusError(status int, body []byte) error {
	var msg messageBody

	problemType := ""
	message := ""

	if err := json.Unmarshal(body, &msg); err == nil {
		problemType = msg.Type

		for _, candidate := range []string{msg.Detail, msg.Message, msg.Error, msg.Title} {
			if strings.TrimSpace(candidate) != "" {
				message = candidate

				break
			}
		}
	}

	if message == "" {
		message = fmt.Sprintf("request failed with status %d", status)
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &AuthError{Status: status, Message: message}
	}

	return &ServerRejected{Status: status, Type: problemType, Message: message}
}
