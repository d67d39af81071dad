package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/Penlika/CoffeeShopApp/pkg/errors"
)

// ServerError is a 5xx response seen by the circuit breaker.
type ServerError struct {
	Status int
	Body   string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Body)
}

// upstreamError covers the two error body shapes payment APIs return: the
// REST form {name, message, details[]} and the OAuth form
// {error, error_description}.
type upstreamError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Details []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`

	OAuthError       string `json:"error"`
	OAuthDescription string `json:"error_description"`
}

func (e upstreamError) issue() string {
	if len(e.Details) > 0 {
		return e.Details[0].Issue
	}
	return ""
}

func (e upstreamError) code() string {
	if e.Name != "" {
		return e.Name
	}
	return e.OAuthError
}

func (e upstreamError) message() string {
	msg := e.Message
	if msg == "" {
		msg = e.OAuthDescription
	}
	if len(e.Details) > 0 {
		d := e.Details[0]
		switch {
		case d.Description != "":
			msg = d.Description
		case d.Issue != "":
			msg = d.Issue
		}
	}
	return msg
}

// IssueError carries the machine-readable issue of the first detail in an
// upstream error body, e.g. ORDER_ALREADY_CAPTURED.
type IssueError struct {
	Issue string
}

func (e *IssueError) Error() string {
	return "upstream issue " + e.Issue
}

// HasIssue reports whether err came from an upstream response whose first
// detail carried issue.
func HasIssue(err error, issue string) bool {
	var ie *IssueError
	return errors.As(err, &ie) && ie.Issue == issue
}

// ParseResponseError consumes and closes the body of a non-2xx response
// from upstream and maps it to an AppError:
//
//	400, 422       PaymentFailed
//	404            NotFound
//	409            Conflict
//	401, 403, 429  UpstreamUnavailable
//	5xx            UpstreamUnavailable
func ParseResponseError(resp *http.Response, upstream string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.UpstreamUnavailable(upstream,
			fmt.Errorf("status %d (read body: %w)", resp.StatusCode, err))
	}

	code, message, issue := "", strings.TrimSpace(string(body)), ""
	var parsed upstreamError
	if json.Unmarshal(body, &parsed) == nil && parsed.code() != "" {
		code, message, issue = parsed.code(), parsed.message(), parsed.issue()
	}
	return mapUpstreamError(resp.StatusCode, code, message, issue, upstream)
}

func mapUpstreamError(status int, code, message, issue, upstream string) error {
	qualified := fmt.Sprintf("%s: %s", upstream, message)
	cause := fmt.Errorf("%s returned %d %s: %s", upstream, status, code, message)
	if issue != "" {
		cause = errors.Join(cause, &IssueError{Issue: issue})
	}

	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return &apperrors.AppError{
			Code:    "PAYMENT_FAILED",
			Message: qualified,
			Status:  http.StatusUnprocessableEntity,
			Err:     errors.Join(apperrors.ErrPaymentFailed, cause),
		}
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: qualified,
			Status:  http.StatusNotFound,
			Err:     errors.Join(apperrors.ErrNotFound, cause),
		}
	case status == http.StatusConflict:
		return &apperrors.AppError{
			Code:    "CONFLICT",
			Message: qualified,
			Status:  http.StatusConflict,
			Err:     errors.Join(apperrors.ErrConflict, cause),
		}
	default:
		return apperrors.UpstreamUnavailable(upstream, cause)
	}
}

// AsUpstreamError maps transport failures, an open breaker and 5xx
// responses to UpstreamUnavailable. AppErrors pass through.
func AsUpstreamError(err error, upstream string) error {
	if err == nil || apperrors.IsApp(err) {
		return err
	}
	return apperrors.UpstreamUnavailable(upstream, err)
}
