package schema

import (
	"errors"
	"fmt"

	"github.com/danmuck/ipcwire/internal/protocol/frame"
	"github.com/danmuck/ipcwire/internal/protocol/tlv"
)

// ErrRemote is returned by DecodeReply when the peer answered with MsgError.
var ErrRemote = errors.New("schema: remote error")

// Call is the decoded form of a MsgCall payload.
type Call struct {
	Endpoint string
	CallID   string
	Body     []byte
}

func EncodeCall(c Call) []byte {
	fields := []tlv.Field{
		tlv.String(tlv.FieldEndpoint, c.Endpoint),
		tlv.Bytes(tlv.FieldBody, c.Body),
	}
	if c.CallID != "" {
		fields = append(fields, tlv.String(tlv.FieldCallID, c.CallID))
	}
	return tlv.EncodeFields(fields)
}

func DecodeCall(payload []byte) (Call, error) {
	fields, err := decodeValidated(frame.MsgCall, payload)
	if err != nil {
		return Call{}, err
	}
	ep, _ := tlv.GetField(fields, tlv.FieldEndpoint)
	body, _ := tlv.GetField(fields, tlv.FieldBody)
	c := Call{Endpoint: string(ep.Value), Body: body.Value}
	if id, ok := tlv.GetField(fields, tlv.FieldCallID); ok && id.Type == tlv.TypeString {
		c.CallID = string(id.Value)
	}
	return c, nil
}

func EncodeReply(body []byte) []byte {
	return tlv.EncodeFields([]tlv.Field{tlv.Bytes(tlv.FieldBody, body)})
}

// EncodeError builds a MsgError payload. status is an HTTP-like code and is
// omitted when zero.
func EncodeError(msg string, status uint32) []byte {
	fields := []tlv.Field{tlv.String(tlv.FieldError, msg)}
	if status != 0 {
		fields = append(fields, tlv.U32(tlv.FieldStatus, status))
	}
	return tlv.EncodeFields(fields)
}

// DecodeReply returns the body of a MsgReply, or an error wrapping ErrRemote
// for a MsgError.
func DecodeReply(messageType uint32, payload []byte) ([]byte, error) {
	fields, err := decodeValidated(messageType, payload)
	if err != nil {
		return nil, err
	}
	switch messageType {
	case frame.MsgReply:
		body, _ := tlv.GetField(fields, tlv.FieldBody)
		return body.Value, nil
	case frame.MsgError:
		msg, _ := tlv.GetField(fields, tlv.FieldError)
		if st, ok := tlv.GetField(fields, tlv.FieldStatus); ok {
			if code, err := st.AsU32(); err == nil {
				return nil, fmt.Errorf("%w: status=%d: %s", ErrRemote, code, msg.Value)
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg.Value)
	default:
		return nil, ValidationError{MessageType: messageType, Reason: "unexpected reply message_type"}
	}
}

func decodeValidated(messageType uint32, payload []byte) ([]tlv.Field, error) {
	fields, err := tlv.DecodeFields(payload)
	if err != nil {
		return nil, err
	}
	if err := Validate(messageType, fields); err != nil {
		return nil, err
	}
	return fields, nil
}
