// Package auth checks the opaque credential a client attaches to each call.
//
// Credentials are compared as bytes. What they mean is up to the deployment.
package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates the credential carried by one call.
type Validator interface {
	Validate(credential []byte) error
}

// StaticCredential accepts exactly one shared credential.
type StaticCredential struct {
	Credential []byte
}

func (s StaticCredential) Validate(credential []byte) error {
	if len(s.Credential) == 0 {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare(s.Credential, credential) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// AllowAll accepts any credential, including none.
type AllowAll struct{}

func (AllowAll) Validate([]byte) error { return nil }

// FuncValidator adapts a function into a Validator.
type FuncValidator func(credential []byte) error

func (f FuncValidator) Validate(credential []byte) error {
	return f(credential)
}

// ParseBearer decodes an "Authorization: Bearer <base64>" header value. An
// empty header yields a nil credential.
func ParseBearer(header string) ([]byte, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return nil, ErrUnauthorized
	}
	credential, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrUnauthorized
	}
	return credential, nil
}
