package handlers

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greensiliconvalley/portal/internal/visibility"
	apperrors "github.com/greensiliconvalley/portal/pkg/errors"
)

func TestWriteErrorMapsUnknownResourceTypeToBadRequest(t *testing.T) {
	err := fmt.Errorf("%w %q", visibility.ErrUnknownResourceType, "mixtape")

	out := writeError(err)

	var appErr *apperrors.AppError
	require.True(t, stderrors.As(out, &appErr))
	require.Equal(t, http.StatusBadRequest, appErr.StatusCode)
	require.Contains(t, appErr.Message, "mixtape")
}

func TestWriteErrorKeepsStorageFailuresInternal(t *testing.T) {
	err := fmt.Errorf("visibility store: persist rule: %w", stderrors.New("database is locked"))

	out := writeError(err)
	require.Same(t, err, out)

	appErr := apperrors.FromError(out)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
	require.NotContains(t, appErr.Message, "database is locked")
}
