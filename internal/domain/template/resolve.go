package template

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// placeholderPattern совпадает только со строкой, которая целиком является плейсхолдером.
var placeholderPattern = regexp.MustCompile(`^\{\{\s*([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\s*\}\}$`)

// Lookup возвращает значение по пути через точку. Сегмент-число индексирует массив.
func Lookup(vars map[string]any, path string) (any, bool) {
	var current any = vars
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case Variables:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case map[string]any:
			value, ok := node[segment]
			if !ok {
				return nil, false
			}
			current = value
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		case []string:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			current = node[idx]
		default:
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

type resolver struct {
	vars     map[string]any
	block    Block
	warnings []Warning
}

// resolve рекурсивно обходит значение и подставляет плейсхолдеры.
// Подставленные значения повторно не разрешаются.
func (r *resolver) resolve(value any) any {
	switch v := value.(type) {
	case string:
		m := placeholderPattern.FindStringSubmatch(v)
		if m == nil {
			return v
		}
		resolved, ok := Lookup(r.vars, m[1])
		if !ok {
			r.warnings = append(r.warnings, Warning{
				BlockID:   r.block.ID,
				BlockType: r.block.Type,
				Path:      m[1],
				Message:   "переменная не найдена",
			})
			return ""
		}
		return resolved
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		// Порядок обхода фиксирован, чтобы предупреждения были детерминированы.
		sort.Strings(keys)
		out := make(map[string]any, len(v))
		for _, k := range keys {
			out[k] = r.resolve(v[k])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.resolve(item)
		}
		return out
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.resolve(item)
		}
		return out
	default:
		return v
	}
}

// ResolveProperties подставляет переменные в свойства блока.
func ResolveProperties(block Block, vars Variables) (map[string]any, []Warning) {
	r := &resolver{vars: map[string]any(vars), block: block}
	if block.Properties == nil {
		return map[string]any{}, nil
	}
	resolved, _ := r.resolve(block.Properties).(map[string]any)
	return resolved, r.warnings
}
