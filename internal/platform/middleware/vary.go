package middleware

import (
	"net/http"
	"strings"
)

// Vary adds Accept to the Vary header, since error bodies are negotiated
// between JSON and CBOR.
func Vary() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addVary(w.Header(), "Accept")
			next.ServeHTTP(w, r)
		})
	}
}

func addVary(h http.Header, token string) {
	for _, v := range h.Values("Vary") {
		for _, existing := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(existing), token) {
				return
			}
		}
	}
	h.Add("Vary", token)
}
