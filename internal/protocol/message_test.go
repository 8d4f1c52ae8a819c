package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalSelectsVariant(t *testing.T) {
	var req Message
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":42,"method":"textDocument/hover","params":{"a":1}}`), &req))
	require.NotNil(t, req.Request)
	assert.Equal(t, "textDocument/hover", req.Method())
	id, ok := req.ID()
	require.True(t, ok)
	assert.False(t, id.IsString())
	assert.Equal(t, int64(42), id.Int())

	var resp Message
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":"abc","result":{"ok":true}}`), &resp))
	require.NotNil(t, resp.Response)
	id, ok = resp.ID()
	require.True(t, ok)
	assert.True(t, id.IsString())
	assert.Equal(t, "abc", id.String())

	var notif Message
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"initialized","params":{}}`), &notif))
	require.NotNil(t, notif.Notification)
	_, ok = notif.ID()
	assert.False(t, ok)
}

func TestMarshalOmitsAbsentOptionalFields(t *testing.T) {
	notif := NewNotificationMessage(Notification{Method: "workspace/diagnostic/refresh"})
	data, err := json.Marshal(notif)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"workspace/diagnostic/refresh"}`, string(data))

	req := NewRequestMessage(Request{ID: NewIntID(1), Method: "initialize"})
	data, err = json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`, string(data))
}

func TestMessageIDRoundTrip(t *testing.T) {
	intID := NewIntID(7)
	data, err := json.Marshal(intID)
	require.NoError(t, err)
	assert.Equal(t, "7", string(data))

	var decoded MessageID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, intID, decoded)

	strID := NewStringID("req-1")
	data, err = json.Marshal(strID)
	require.NoError(t, err)
	assert.Equal(t, `"req-1"`, string(data))

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, strID, decoded)
}

func TestResponseErrorExclusiveWithResult(t *testing.T) {
	resp := NewResponseMessage(Response{
		ID:    NewIntID(1),
		Error: &ResponseError{Code: -32601, Message: "method not found"},
	})
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`, string(data))
}
