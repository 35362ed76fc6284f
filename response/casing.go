package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
)

// ConvertKeys converts every object key of v from snake_case to camelCase,
// recursively through nested objects and arrays. Keys without an underscore
// are already in wire form and pass through untouched. A key with an
// underscore is converted by strcase.ToLowerCamel, which also treats '-',
// '.' and spaces as word breaks ("x-trace_id" becomes "xTraceId"). When a
// converted key collides with a key already present in the object, the
// untouched key keeps its value and the converted one is dropped; between
// two converted keys the lexically smaller original wins.
// The value is normalized through encoding/json first, so struct json tags
// apply and integers keep their precision.
func ConvertKeys(v any) (any, error) {
	generic, err := normalize(v)
	if err != nil {
		return nil, err
	}
	return convert(generic), nil
}

func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize response data: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to normalize response data: %w", err)
	}
	return out, nil
}

func convert(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if !strings.Contains(k, "_") {
				out[k] = convert(val)
			}
		}
		snake := make([]string, 0, len(t)-len(out))
		for k := range t {
			if strings.Contains(k, "_") {
				snake = append(snake, k)
			}
		}
		sort.Strings(snake)
		for _, k := range snake {
			ck := strcase.ToLowerCamel(k)
			if _, taken := out[ck]; taken {
				continue
			}
			out[ck] = convert(t[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = convert(val)
		}
		return out
	default:
		return v
	}
}
