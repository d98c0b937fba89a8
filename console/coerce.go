package console

import "github.com/acksell/hbnb/models"

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// coerce turns a bare update token into a value: an integer, else a float,
// else the token as a string with one layer of quotes removed.
func coerce(raw string) models.Value {
	if v, err := models.ParseNumber(raw); err == nil {
		return v
	}
	return models.String(unquote(raw))
}
