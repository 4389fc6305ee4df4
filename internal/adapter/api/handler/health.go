package handler

import "net/http"

// Health reports service liveness. It requires no authentication.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"platform": "Zero CRM",
	})
}
