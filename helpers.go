package tedee

// truncatePreview returns a truncated string for error messages.
func truncatePreview(data []byte) string {
	s := string(data)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
