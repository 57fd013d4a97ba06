package utils

// MaskSecret keeps a short prefix so tokens can be told apart in logs and listings.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "*****"
	}
	return s[:4] + "*****" + s[len(s)-2:]
}
