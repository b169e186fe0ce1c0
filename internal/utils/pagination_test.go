// internal/utils/pagination_test.go
package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	id := uuid.New()

	token := EncodeCursor(ts, id)
	gotTime, gotID, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.True(t, ts.Equal(gotTime))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursorMalformed(t *testing.T) {
	_, _, err := DecodeCursor("not base64!!")
	assert.Error(t, err)

	// Valid base64, garbage payload
	_, _, err = DecodeCursor("aGVsbG8=")
	assert.Error(t, err)

	// Timestamp without the id component
	_, _, err = DecodeCursor(base64.URLEncoding.EncodeToString(
		[]byte(time.Now().Format(time.RFC3339Nano))))
	assert.Error(t, err)

	// Garbage id component
	_, _, err = DecodeCursor(base64.URLEncoding.EncodeToString(
		[]byte(time.Now().Format(time.RFC3339Nano) + "|not-a-uuid")))
	assert.Error(t, err)
}
