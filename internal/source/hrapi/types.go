package hrapi

import "encoding/json"

// ErrorResponse is the error body shape used by the backend. Only one of
// the fields is usually set.
type ErrorResponse struct {
	Message        string   `json:"message"`
	Detail         string   `json:"detail"`
	Error          string   `json:"error"`
	NonFieldErrors []string `json:"non_field_errors"`
}

// Record is one raw JSON object from a list endpoint. Field names vary
// between backend versions, so records are decoded loosely and normalized.
type Record map[string]interface{}

// envelope is the paginated list shape, {"count": n, "results": [...]}.
type envelope struct {
	Results []Record `json:"results"`
}

// decodeList accepts either a bare JSON array or a results envelope.
func decodeList(raw json.RawMessage) ([]Record, error) {
	var list []Record
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env.Results, nil
}
