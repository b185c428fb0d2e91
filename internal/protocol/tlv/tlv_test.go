package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	in := []Field{
		String(FieldEndpoint, "select_handle"),
		{ID: 9999, Type: TypeBytes, Value: []byte{0xAA, 0xBB}}, // unknown field id
	}
	out, err := DecodeFields(EncodeFields(in))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 9999 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[1])
	}
	endpoint, err := out[0].AsString()
	if err != nil || endpoint != "select_handle" {
		t.Fatalf("endpoint: %q %v", endpoint, err)
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := DecodeFields([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{0, 1, TypeString, 0, 0, 0, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestTypedAccessors(t *testing.T) {
	body := Bytes(FieldBody, []byte{0x00, 0x01})
	if _, err := body.AsString(); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	got, err := body.AsBytes()
	if err != nil || !bytes.Equal(got, []byte{0x00, 0x01}) {
		t.Fatalf("bytes: % x %v", got, err)
	}
	status := U32(FieldStatus, 404)
	if v, err := status.AsU32(); err != nil || v != 404 {
		t.Fatalf("u32: %d %v", v, err)
	}
	if _, ok := GetField([]Field{body, status}, FieldEndpoint); ok {
		t.Fatalf("unexpected endpoint field")
	}
}
