package ui

import (
	"sort"
	"strings"
)

// RenderRoutes lists routes grouped by method, one "METHOD  pattern" line each
func RenderRoutes(byMethod map[string][]string, styled bool) string {
	methods := make([]string, 0, len(byMethod))
	for method := range byMethod {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	var b strings.Builder
	for _, method := range methods {
		for _, pattern := range byMethod[method] {
			if styled {
				b.WriteString(MethodStyle.Render(method))
			} else {
				b.WriteString(method + strings.Repeat(" ", max(1, 8-len(method))))
			}
			b.WriteString(render(PatternStyle, styled, pattern))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Success renders a line with a check mark
func Success(message string, styled bool) string {
	return render(SuccessStyle, styled, SuccessMarker+" "+message)
}

// Failure renders a line with a cross
func Failure(message string, styled bool) string {
	return render(ErrorStyle, styled, FailureMarker+" "+message)
}
