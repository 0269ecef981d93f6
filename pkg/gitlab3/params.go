package gitlab3

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// encodeParams converts request parameters into query values. params may be
// nil, url.Values, Attributes, map[string]any or a struct with url tags.
func encodeParams(params any) (url.Values, error) {
	switch p := params.(type) {
	case nil:
		return url.Values{}, nil
	case url.Values:
		values := make(url.Values, len(p))
		for k, v := range p {
			values[k] = append([]string(nil), v...)
		}
		return values, nil
	case Attributes:
		return attributesToValues(p), nil
	case map[string]any:
		return attributesToValues(p), nil
	default:
		values, err := query.Values(params)
		if err != nil {
			return nil, fmt.Errorf("failed to encode parameters: %w", err)
		}
		return values, nil
	}
}

// attributesToValues flattens an attribute map into query values.
// Nil values are skipped and string slices are comma-joined, which is how
// GitLab expects label lists.
func attributesToValues(attrs map[string]any) url.Values {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case nil:
			continue
		case []string:
			values.Set(k, strings.Join(v, ","))
		default:
			values.Set(k, formatValue(v))
		}
	}
	return values
}

// formatValue renders a scalar the way it appears in a GitLab URL.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// pathKey renders an identifier as an escaped URL path segment. Project ids
// may be given as "namespace/name", which GitLab expects as one segment.
func pathKey(key any) string {
	return url.PathEscape(formatValue(key))
}
