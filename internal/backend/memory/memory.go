// Package memory is an in-process account backend for development and tests.
// It serves the ipc.Backend contract from a fixed account table.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/danmuck/ipcwire/internal/ipc"
	"github.com/danmuck/ipcwire/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Account is one login the backend accepts. An empty TwoFactorCode disables
// the second factor.
type Account struct {
	Username      string
	Password      string
	TwoFactorCode string
	UserID        string
	Handles       []string
}

// Backend keeps logged-in users in login order. The active handle always
// belongs to one of them, or is empty when nobody is logged in.
type Backend struct {
	mu       sync.Mutex
	accounts map[string]Account
	users    []Account
	active   string
	logger   zerolog.Logger
}

var _ ipc.Backend = (*Backend)(nil)

func New(accounts []Account) *Backend {
	b := &Backend{
		accounts: make(map[string]Account, len(accounts)),
		logger:   log.With().Str("component", "memory_backend").Logger(),
	}
	for _, a := range accounts {
		a.Username = strings.TrimSpace(a.Username)
		if a.UserID == "" {
			a.UserID = a.Username
		}
		a.Handles = slices.Clone(a.Handles)
		b.accounts[a.Username] = a
	}
	return b
}

func (b *Backend) Login(_ context.Context, username, password string, code protocol.Option[string]) (protocol.Option[ipc.LoginErrorCode], error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.accounts[username]
	if !ok || acct.Password != password {
		b.logger.Info().Str("username", username).Msg("login failed")
		return protocol.Some(ipc.LoginErrorCodeLoginFailed), nil
	}
	if acct.TwoFactorCode != "" {
		given, present := code.Get()
		if !present {
			return protocol.Some(ipc.LoginErrorCodeTwoFactorRequired), nil
		}
		if strings.TrimSpace(given) != acct.TwoFactorCode {
			b.logger.Info().Str("username", username).Msg("login failed: second factor")
			return protocol.Some(ipc.LoginErrorCodeLoginFailed), nil
		}
	}

	if !slices.ContainsFunc(b.users, func(u Account) bool { return u.UserID == acct.UserID }) {
		b.users = append(b.users, acct)
	}
	if b.active == "" && len(acct.Handles) > 0 {
		b.active = acct.Handles[0]
	}
	b.logger.Info().Str("user_id", acct.UserID).Msg("logged in")
	return protocol.None[ipc.LoginErrorCode](), nil
}

// Logout removes the active user and falls back to the next logged-in user.
func (b *Backend) Logout(context.Context) (protocol.Option[ipc.LogoutErrorCode], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.users) == 0 {
		return protocol.Some(ipc.LogoutErrorCodeNotLoggedIn), nil
	}
	idx := b.activeIndex()
	if idx < 0 {
		idx = 0
	}
	gone := b.users[idx]
	b.users = slices.Delete(b.users, idx, idx+1)
	b.active = ""
	if len(b.users) > 0 && len(b.users[0].Handles) > 0 {
		b.active = b.users[0].Handles[0]
	}
	b.logger.Info().Str("user_id", gone.UserID).Msg("logged out")
	return protocol.None[ipc.LogoutErrorCode](), nil
}

func (b *Backend) GetUser(context.Context) (protocol.Result[ipc.User, ipc.GetUserErrorCode], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.users) == 0 {
		return protocol.Err[ipc.User](ipc.GetUserErrorCodeNotLoggedIn), nil
	}
	idx := b.activeIndex()
	if idx < 0 {
		return protocol.Err[ipc.User](ipc.GetUserErrorCodeUnknown), nil
	}
	u := b.users[idx]
	return protocol.Ok[ipc.User, ipc.GetUserErrorCode](ipc.User{
		UserID:         u.UserID,
		Handles:        slices.Clone(u.Handles),
		SelectedHandle: b.active,
	}), nil
}

func (b *Backend) SelectHandle(_ context.Context, handle string) (protocol.Option[ipc.SelectHandleErrorCode], error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.users) == 0 {
		return protocol.Some(ipc.SelectHandleErrorCodeNotLoggedIn), nil
	}
	if b.ownerOf(handle) < 0 {
		return protocol.Some(ipc.SelectHandleErrorCodeHandleNotFound), nil
	}
	b.active = handle
	return protocol.None[ipc.SelectHandleErrorCode](), nil
}

func (b *Backend) activeIndex() int {
	if b.active == "" {
		// users without handles can still be active
		if len(b.users) > 0 {
			return 0
		}
		return -1
	}
	return b.ownerOf(b.active)
}

func (b *Backend) ownerOf(handle string) int {
	return slices.IndexFunc(b.users, func(u Account) bool {
		return slices.Contains(u.Handles, handle)
	})
}
