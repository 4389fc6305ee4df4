package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/zerocrm/recordstore/internal/adapter/metrics"
	"github.com/zerocrm/recordstore/internal/domain"
)

// readBatch reads a create request body, which is either one JSON object or
// a JSON array of objects. It returns the records and whether the input was
// a single object.
func readBatch(w http.ResponseWriter, r *http.Request, maxBody int64) ([]json.RawMessage, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, false, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false, &domain.ValidationError{Reason: "empty request body"}
	}

	if body[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, false, &domain.ValidationError{Reason: "malformed JSON array: " + err.Error()}
		}
		return records, false, nil
	}

	return []json.RawMessage{body}, true, nil
}

// countBulk records the outcome counters of one bulk result.
func countBulk(m *metrics.Metrics, resource string, res domain.BulkResult) {
	if m == nil {
		return
	}
	m.BulkRecordsTotal.WithLabelValues(resource, "created").Add(float64(len(res.Created)))
	m.BulkRecordsTotal.WithLabelValues(resource, "skipped").Add(float64(len(res.Skipped)))
	m.BulkRecordsTotal.WithLabelValues(resource, "rejected").Add(float64(len(res.Rejected)))
}
