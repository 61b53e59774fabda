package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

func (s *Server) upload(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	r.Body = http.MaxBytesReader(w, r.Body, usecase.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(usecase.MaxUploadBytes); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, domain.Invalid("el archivo supera los 10 MB"))
			return
		}
		writeError(w, r, domain.Invalid("multipart inválido"))
		return
	}
	defer r.MultipartForm.RemoveAll()
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.Invalid("falta el campo file"))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, usecase.MaxUploadBytes+1))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.Uploads.Upload(r.Context(), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) deleteUpload(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	if err := s.Uploads.Delete(r.Context(), r.PathValue("storageId")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mpNotification struct {
	Type string `json:"type"`
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// paymentID busca el id en el body o en la query (MP manda ambos formatos).
func paymentID(r *http.Request) string {
	var n mpNotification
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&n); err == nil && len(n.Data.ID) > 0 {
		var str string
		if json.Unmarshal(n.Data.ID, &str) == nil {
			return str
		}
		var num json.Number
		if json.Unmarshal(n.Data.ID, &num) == nil {
			return num.String()
		}
	}
	q := r.URL.Query()
	if id := q.Get("data.id"); id != "" {
		return id
	}
	return q.Get("id")
}

// webhookMP responde siempre 200 para que MP no reintente; los errores quedan en el log.
func (s *Server) webhookMP(w http.ResponseWriter, r *http.Request) {
	id := paymentID(r)
	if id == "" {
		log.Warn().Str("query", r.URL.RawQuery).Msg("webhook MP sin id")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	o, err := s.Orders.HandlePayment(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("payment", id).Msg("webhook MP")
		writeJSON(w, http.StatusOK, map[string]string{"status": "error"})
		return
	}
	status := "ignored"
	if o != nil {
		status = fmt.Sprintf("order %s: %s", o.ID, o.Status)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
