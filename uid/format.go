package uid

import "regexp"

// Validate 判断 candidate 是否完整匹配 pattern，pattern 为 nil 时返回 false
func Validate(candidate string, pattern *regexp.Regexp) bool {
	if pattern == nil {
		return false
	}
	return pattern.MatchString(candidate)
}
