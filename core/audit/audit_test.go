// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512", humanizeSize(512))
	assert.Equal(t, "1.50K", humanizeSize(1536))
	assert.Equal(t, "2.00M", humanizeSize(2*bytesInMB))
	assert.Equal(t, "1.00G", humanizeSize(bytesInGB))
}

func TestIsSecretKey(t *testing.T) {
	t.Parallel()

	assert.True(t, isSecretKey("EXAMADMIN_SESSION_SECRET"))
	assert.True(t, isSecretKey("spring.datasource.password"))
	assert.False(t, isSecretKey("EXAMADMIN_PORT"))
}

func TestSpanEndIsIdempotent(t *testing.T) {
	t.Parallel()

	span := Span{Destination: ToUser, Method: "GET", URL: "/texts"}
	_ = span.Begin(context.Background())

	time.Sleep(time.Millisecond)
	span.End()

	first := span.Duration()
	assert.Positive(t, first)

	span.End()
	assert.Equal(t, first, span.Duration())
}

func TestSpanLogRecordsMetrics(t *testing.T) {
	t.Parallel()

	span := Span{Destination: ToUser, Method: "GET", URL: "/nope", StatusCode: 404, Error: errors.New("no route")}
	_ = span.Begin(context.Background())
	span.End()

	assert.NotPanics(t, span.Log)
	assert.NotPanics(t, func() { ObserveViewLoad("Texts", time.Millisecond, nil) })
	assert.NotPanics(t, func() { CountNavigation(OutcomeNotFound) })
}
