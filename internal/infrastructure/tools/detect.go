package tools

import (
	"regexp"
	"strings"
)

// Detection rules shared by the scanner and the remediators. Keeping them in
// one place guarantees a remediated artifact no longer trips the scanner.
var (
	// Secret assignments with a literal value. Values already externalized
	// to a ${VAR} placeholder are excluded, which is what makes
	// code_remediation idempotent.
	secretRe = regexp.MustCompile(`(?i)\b(api_key|apikey|secret|password|passwd|token)\b(\s*[:=]\s*)(["'])[^"'$][^"']*(["'])`)

	// Weak hash primitives.
	weakHashRe = regexp.MustCompile(`(?i)\b(md5|sha1)\b`)

	// Debug switched on.
	debugRe = regexp.MustCompile(`(?i)\b(debug)(\s*[:=]\s*)(?:true|1|on)\b`)

	// SQL assembled by string concatenation.
	sqlConcatRe = regexp.MustCompile(`(?i)\b(select|insert|update|delete)\b[^\n]*["']\s*\+`)

	// Plain http URLs, loopback excluded.
	plainHTTPRe = regexp.MustCompile(`http://(?:[^\s"']+)`)

	// TLS verification switched off.
	insecureFlagRe = regexp.MustCompile(`(?i)\b(insecure|insecure_skip_verify|insecureskipverify)\b(\s*[:=]\s*)true`)
	verifyOffRe    = regexp.MustCompile(`(?i)\b(verify)(\s*[:=]\s*)false\b`)
)

func isLoopbackURL(url string) bool {
	return strings.Contains(url, "localhost") || strings.Contains(url, "127.0.0.1")
}

// matchLines returns the 1-based line numbers on which re matches.
func matchLines(content string, re *regexp.Regexp) []int {
	var lines []int
	for i, line := range strings.Split(content, "\n") {
		if re.MatchString(line) {
			lines = append(lines, i+1)
		}
	}
	return lines
}
