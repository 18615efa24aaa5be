package context

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	wizardIDKey  contextKey = "wizard_id"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, or an empty string.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithWizardID stores the enrollment wizard identifier on the context.
func WithWizardID(ctx context.Context, wizardID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, wizardIDKey, wizardID)
}

func WizardIDFromContext(ctx context.Context) string {
	return stringValue(ctx, wizardIDKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(key).(string)
	return value
}
