// internal/utils/pagination.go
package utils

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const DefaultPageSize = 10

// CursorParams drive the ledger's cursor-based pagination. The cursor is
// an opaque token derived from the last returned record's timestamp;
// offset paging would drift under concurrent appends.
type CursorParams struct {
	Cursor   string `json:"cursor"`
	PageSize int    `json:"page_size"`
}

func GetCursorParams(c *gin.Context) CursorParams {
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if pageSize < 1 || pageSize > 100 {
		pageSize = DefaultPageSize
	}

	return CursorParams{
		Cursor:   c.Query("cursor"),
		PageSize: pageSize,
	}
}

// EncodeCursor packs the boundary record's timestamp and id into an
// opaque token. The id breaks ties between records sharing a timestamp,
// so no record is ever skipped at a page boundary.
func EncodeCursor(t time.Time, id uuid.UUID) string {
	raw := t.Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor unpacks a token produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor: %w", err)
	}

	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor payload")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor timestamp: %w", err)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("malformed cursor id: %w", err)
	}

	return t, id, nil
}
