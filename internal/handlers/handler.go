package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/senyabanana/bid-tracker/internal/auth"
	"github.com/senyabanana/bid-tracker/internal/utils"
)

// subject возвращает ID пользователя из проверенного JWT.
// Если claims нет, отвечает 401 и возвращает false.
func subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.FromContext(r.Context())
	if !ok || claims.Subject == "" {
		utils.SendErrorResponse(w, http.StatusUnauthorized, "authorization is required")
		return "", false
	}
	return claims.Subject, true
}

// decodeBody читает JSON-тело запроса в dst. При ошибке отвечает 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respond(w http.ResponseWriter, logger *log.Logger, statusCode int, body any) {
	if err := utils.SendJSON(w, statusCode, body); err != nil {
		logger.Println(err)
	}
}
