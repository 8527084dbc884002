package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/ai"
)

// Mock ai.Client
type Client struct {
	mock.Mock
}

func (m *Client) Generate(ctx context.Context, userID string, prompt string) (string, ai.UsageInfo, error) {
	args := m.Called(ctx, userID, prompt)
	usage, _ := args.Get(1).(ai.UsageInfo)
	return args.String(0), usage, args.Error(2)
}
