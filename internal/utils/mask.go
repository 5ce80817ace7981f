package utils

// MaskSecret redacts all but the first four characters of a token.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "********"
}
