// Package classify interprets raw publish responses.
package classify

import (
	"bytes"
	"encoding/json"

	"github.com/bft-labs/pubship/internal/domain"
	"github.com/bft-labs/pubship/internal/ports"
)

// responseBody covers both the success and the error shape of the
// publish API. Absent fields stay nil.
type responseBody struct {
	MessageIDs []string `json:"messageIds"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Classify turns a transport response into an outcome. Success is decided
// by the transport flag alone; the body only supplies ids or diagnostics.
func Classify(resp ports.PublishResponse) domain.Outcome {
	out := domain.Outcome{
		Success:    resp.Success,
		StatusCode: resp.StatusCode,
		Message:    string(resp.Body),
	}

	body, perr := parse(resp.Body)
	if perr != nil {
		out.Err = perr
	}

	if resp.Success {
		if body != nil && body.MessageIDs != nil {
			out.AckIDs = body.MessageIDs
		}
		return out
	}

	if body != nil && body.Error != nil && body.Error.Message != "" {
		out.Message = body.Error.Message
	}
	return out
}

// parse decodes bodies that look like a JSON object. Anything else is
// opaque text and yields (nil, nil).
func parse(raw []byte) (*responseBody, *domain.ClassificationError) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	var body responseBody
	if err := json.Unmarshal(trimmed, &body); err != nil {
		return nil, &domain.ClassificationError{Body: string(raw), Err: err}
	}
	return &body, nil
}
