package formatting

import (
	"encoding/json"
	"fmt"
	"sort"

	"loopauth/internal/oauth"
)

// PrettyJSON formats any value as indented JSON for human-readable display,
// falling back to %v when the value cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// tokenFields returns the response fields to print, credentials redacted
// unless showToken is set.
func tokenFields(res *oauth.TokenResult, showToken bool) map[string]any {
	if res == nil {
		return map[string]any{}
	}
	if showToken {
		out := make(map[string]any, len(res.Values))
		for k, v := range res.Values {
			out[k] = v
		}
		return out
	}
	return res.Redacted()
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
