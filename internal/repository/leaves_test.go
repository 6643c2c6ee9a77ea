package repository_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selatan-haulage/driver-leave/backend/internal/repository"
)

func TestErrQuotaFull_CarriesDates(t *testing.T) {
	err := &repository.ErrQuotaFull{Dates: []string{"2024-06-10", "2024-06-11"}}

	assert.Equal(t, "daily quota reached on 2024-06-10, 2024-06-11", err.Error())

	wrapped := fmt.Errorf("apply failed: %w", err)
	target := &repository.ErrQuotaFull{}
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, []string{"2024-06-10", "2024-06-11"}, target.Dates)
}
