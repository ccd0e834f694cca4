package middleware

import (
	"context"
	"sync"
)

var _ TokenValidator = &tokenValidatorMock{}

type tokenValidatorMock struct {
	ValidateTokenFunc func(ctx context.Context, token string) (int64, string, error)

	mu     sync.Mutex
	tokens []string
}

func (mock *tokenValidatorMock) ValidateToken(ctx context.Context, token string) (int64, string, error) {
	if mock.ValidateTokenFunc == nil {
		panic("tokenValidatorMock.ValidateTokenFunc: method is nil but TokenValidator.ValidateToken was just called")
	}
	mock.mu.Lock()
	mock.tokens = append(mock.tokens, token)
	mock.mu.Unlock()
	return mock.ValidateTokenFunc(ctx, token)
}

func (mock *tokenValidatorMock) ValidateTokenCalls() []string {
	mock.mu.Lock()
	defer mock.mu.Unlock()
	return append([]string(nil), mock.tokens...)
}
