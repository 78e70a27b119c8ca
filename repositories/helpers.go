package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}

// prepareRecord stamps the generated id and, when absent, createdAt.
func prepareRecord(record any, id string, now time.Time) (Fields, error) {
	fields, err := ToFields(record)
	if err != nil {
		return nil, err
	}
	fields["id"] = id
	if v, ok := fields["createdAt"]; !ok || v == nil || isZeroTime(v) {
		fields["createdAt"] = now.UTC()
	}
	return fields, nil
}

// isZeroTime catches time.Time{} that survived JSON encoding of a typed struct.
func isZeroTime(v any) bool {
	s, ok := v.(string)
	return ok && strings.HasPrefix(s, "0001-01-01T00:00:00")
}

func splitSubpath(subpath string) []string {
	parts := strings.FieldsFunc(subpath, func(r rune) bool { return r == '/' || r == '.' })
	return parts
}

// mergeFields applies a shallow merge; nil values delete keys.
func mergeFields(dst map[string]any, src Fields) {
	for k, v := range src {
		if v == nil {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}
