package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequestAgencyID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want AgencyID
	}{
		{"string id", `{"message":"hi","agency_id":"12"}`, "12"},
		{"numeric id", `{"message":"hi","agency_id":12}`, "12"},
		{"null id", `{"message":"hi","agency_id":null}`, ""},
		{"missing id", `{"message":"hi"}`, ""},
		{"opaque id", `{"message":"hi","agency_id":"acme-realty"}`, "acme-realty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.AgencyID)
			assert.Equal(t, "hi", req.Message)
		})
	}
}

func TestChatRequestRejectsObjectID(t *testing.T) {
	var req ChatRequest
	err := json.Unmarshal([]byte(`{"message":"hi","agency_id":{"id":1}}`), &req)
	require.Error(t, err)
}

func TestChatRequestEncodesIDAsString(t *testing.T) {
	b, err := json.Marshal(ChatRequest{Message: "hello", AgencyID: "7"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hello","agency_id":"7"}`, string(b))

	b, err = json.Marshal(ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"hello","agency_id":""}`, string(b))
}

func TestAgencyIDInt(t *testing.T) {
	n, ok := AgencyID("42").Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	for _, bad := range []AgencyID{"", "0", "-3", "abc", "4.2"} {
		_, ok := bad.Int()
		assert.False(t, ok, "id %q", bad)
	}
}

func TestLeadResponseNulls(t *testing.T) {
	email := "jane@example.com"
	b, err := json.Marshal(LeadResponse{Email: &email, Message: "reach me"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"jane@example.com","phone":null,"message":"reach me"}`, string(b))
}
