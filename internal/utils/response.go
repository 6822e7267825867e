package utils

import (
	"encoding/json"
	"net/http"
	"strings"
)

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// ParseJSONObject decodes model output into v. Code fences are stripped first.
func ParseJSONObject(content string, v interface{}) error {
	return json.NewDecoder(strings.NewReader(StripFences(content))).Decode(v)
}
