package logging

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestCorrelationIDRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc")
	assert.Equal(t, "abc", CorrelationIDFromContext(ctx))

	fresh := CorrelationIDFromContext(context.Background())
	assert.NotEmpty(t, fresh)
	assert.NotEqual(t, fresh, CorrelationIDFromContext(context.Background()))
}

func TestLoggerFromContext(t *testing.T) {
	assert.Equal(t, logrus.StandardLogger(), FromContext(context.Background()))

	entry := logrus.WithField("correlation_id", "abc")
	ctx := ToContext(context.Background(), entry)
	assert.Equal(t, entry, FromContext(ctx))
}
