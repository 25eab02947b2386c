package report

import "regexp"

// Characters that are unsafe in filenames on at least one supported
// platform. Each occurrence is replaced with a hyphen, never dropped, so
// distinct PO numbers stay distinct after sanitisation.
var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces unsafe characters in a user-supplied name with
// hyphens. It is applied to uploaded filenames as well as generated ones.
func SanitizeFilename(s string) string {
	return unsafeFilenameChars.ReplaceAllString(s, "-")
}

// reportFilename builds the closure report filename from the project's PO
// number and a collision-resistant token, e.g.
// Closure_Report_PO-2024-07_1724912345678k3x9qz.pdf.
func reportFilename(poNumber, token string) string {
	return "Closure_Report_" + SanitizeFilename(poNumber) + "_" + token + ".pdf"
}
