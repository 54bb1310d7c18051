package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// AgencyID is the opaque agency identifier carried by the widget. The widget
// always sends it as a string; numeric JSON values are accepted as well.
type AgencyID string

func (id *AgencyID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = AgencyID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("agency_id must be a string or number: %w", err)
	}
	*id = AgencyID(n.String())
	return nil
}

// Int parses the identifier as a positive database key.
func (id AgencyID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

type ChatRequest struct {
	Message  string   `json:"message"`
	AgencyID AgencyID `json:"agency_id"`
}

// ChatReply is the body of POST /chat. Reply is preferred for display;
// Error is set on failures.
type ChatReply struct {
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// AgencyInfo is the body of GET /agency/{id}.
type AgencyInfo struct {
	Name      string `json:"name,omitempty"`
	Assistant string `json:"assistant,omitempty"`
}

type CreateAgencyRequest struct {
	Name      string `json:"name"`
	Prompt    string `json:"prompt"`
	Assistant string `json:"assistant,omitempty"`
}

type CreateAgencyResponse struct {
	AgencyID int64 `json:"agency_id"`
}

// LeadResponse is one entry of GET /leads/{agency_id}; absent contact
// fields are encoded as null.
type LeadResponse struct {
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Message string  `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
