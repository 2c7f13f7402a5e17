package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode_Register_Allows_Empty_Name(t *testing.T) {
	req := require.New(t)

	var r RegisterRequest
	req.NoError(decode(json.RawMessage(`{"name":"","public_key":"pk"}`), &r))
	req.Empty(r.Name)
	req.Equal("pk", r.PublicKey)
}

func TestDecode_ChooseGroup_Requires_Instruction(t *testing.T) {
	req := require.New(t)

	var c ChooseGroupRequest
	req.NoError(decode(json.RawMessage(`{"instruction":"create-group|Study"}`), &c))
	req.Equal("create-group|Study", c.Instruction)

	req.Error(decode(json.RawMessage(`{}`), &ChooseGroupRequest{}))
}

func TestDecode_Encrypted_Requires_Nonempty_Payload(t *testing.T) {
	req := require.New(t)

	var e EncryptedRequest
	req.NoError(decode(json.RawMessage(`{"payload":{"Bob":"b3BhcXVl"}}`), &e))
	req.Equal("b3BhcXVl", e.Payload["Bob"])

	req.Error(decode(json.RawMessage(`{"payload":{}}`), &EncryptedRequest{}))
	req.Error(decode(json.RawMessage(`{}`), &EncryptedRequest{}))
}

func TestDecode_Rejects_Malformed_JSON(t *testing.T) {
	req := require.New(t)

	req.Error(decode(json.RawMessage(`{"content":`), &TextRequest{}))
}
