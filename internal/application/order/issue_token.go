package order

import (
	"context"

	"github.com/xiebiao/flashorder/internal/domain/idempotency"
)

// IssueTokenUseCase 申请下单Token
type IssueTokenUseCase struct {
	guard *idempotency.Guard
}

func NewIssueTokenUseCase(guard *idempotency.Guard) *IssueTokenUseCase {
	return &IssueTokenUseCase{guard: guard}
}

// IssueTokenResponse 下单前获取的一次性Token
type IssueTokenResponse struct {
	Token            string `json:"token"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

func (uc *IssueTokenUseCase) Execute(ctx context.Context, userID uint) (*IssueTokenResponse, error) {
	ctx, span := startSpan(ctx, "IssueIdempotencyToken")
	token, err := uc.guard.IssueToken(ctx, userID)
	endSpan(span, err)
	if err != nil {
		return nil, err
	}
	return &IssueTokenResponse{
		Token:            token.Value,
		ExpiresInMinutes: token.ExpiresInMinutes(),
	}, nil
}
