package pkg

import "strings"

// MatchAny 大小写不敏感的子串匹配，query 原样参与匹配不做 trim，
// 只有空串总是命中
func MatchAny(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// FilterSlice 保留 fields 中任一字段匹配 query 的元素
func FilterSlice[T any](items []T, query string, fields func(T) []string) []T {
	if query == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if MatchAny(query, fields(it)...) {
			out = append(out, it)
		}
	}
	return out
}
