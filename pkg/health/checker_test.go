package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestCheckHealthy(t *testing.T) {
	status := NewChecker(fakePinger{}).Check(context.Background())
	assert.Equal(t, StatusHealthy, status.Status)
	assert.True(t, status.Database.Connected)
	assert.NotEmpty(t, status.Version)
}

func TestCheckUnhealthy(t *testing.T) {
	status := NewChecker(fakePinger{err: errors.New("refused")}).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Status)
	assert.False(t, status.Database.Connected)
	assert.Contains(t, status.Database.Error, "refused")
}
