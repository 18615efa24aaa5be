package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithWizardID(ctx, "wiz-1")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "wiz-1", WizardIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
