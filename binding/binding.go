// Package binding 展开任务文件中的 ${path} 占位符。
package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Expand 将文本中的 ${path.to.value} 替换为 data 中的值。无法解析的占位符原样保留，
// 同时返回错误，错误中列出全部缺失的路径。
func Expand(text string, data any) (string, error) {
	out, missing := expand(text, data)
	if len(missing) > 0 {
		return out, fmt.Errorf("未定义的变量: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func expand(text string, data any) (string, []string) {
	var missing []string
	out := exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		path := strings.TrimSpace(groups[1])
		if path != "" && data != nil {
			if val, ok := resolvePath(data, path); ok {
				return fmt.Sprint(val)
			}
		}
		if !slices.Contains(missing, path) {
			missing = append(missing, path)
		}
		return match
	})
	return out, missing
}

// Vars 合并 JSON 对象与 key=value 形式的变量，后者优先；key 可以用点号写入嵌套对象。
func Vars(dataJSON string, pairs []string) (map[string]any, error) {
	vars := map[string]any{}
	if strings.TrimSpace(dataJSON) != "" {
		if err := json.Unmarshal([]byte(dataJSON), &vars); err != nil {
			return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	}
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("变量 %q 需要写成 key=value", pair)
		}
		if err := assign(vars, strings.Split(key, "."), val); err != nil {
			return nil, err
		}
	}
	return vars, nil
}

func assign(m map[string]any, path []string, val string) error {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			if _, exists := m[seg]; exists {
				return fmt.Errorf("变量 %s 不是对象，无法写入子字段", seg)
			}
			next = map[string]any{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
	return nil
}

// resolvePath 沿 a.b[0].c 形式的路径取值；中途任何一段不存在都返回 false。
func resolvePath(data any, path string) (any, bool) {
	current := data
	for _, segment := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(segment, "[")
		if name != "" {
			m, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}
			if current, ok = m[name]; !ok {
				return nil, false
			}
		}
		for rest != "" {
			idxStr, tail, ok := strings.Cut(rest, "]")
			if !ok {
				return nil, false
			}
			idx, err := strconv.Atoi(idxStr)
			list, isList := current.([]any)
			if err != nil || !isList || idx < 0 || idx >= len(list) {
				return nil, false
			}
			current = list[idx]
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return current, true
}
