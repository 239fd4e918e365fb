package admission

import "strings"

// patchOp is one RFC-6902 JSON Patch operation, in the style of
// rkitindi-kr-pvc-webhook's internal/webhook/patch.go.
type patchOp struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value,omitempty"`
}

func addOp(path string, value interface{}) patchOp {
	return patchOp{Op: "add", Path: path, Value: value}
}

func replaceOp(path string, value interface{}) patchOp {
	return patchOp{Op: "replace", Path: path, Value: value}
}

// pathEscape escapes a JSON object key per RFC 6901 ("~" -> "~0",
// "/" -> "~1") so it can be embedded in a JSON Pointer path segment.
func pathEscape(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	key = strings.ReplaceAll(key, "/", "~1")
	return key
}
