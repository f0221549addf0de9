package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// adminServer exposes a read-only operator surface next to the consumers.
type adminServer struct {
	svc imagemeta.Service
}

func newAdminServer(svc imagemeta.Service) *adminServer {
	return &adminServer{svc: svc}
}

func (s *adminServer) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/records/{imageName}", s.getRecord)

	return r
}

func (s *adminServer) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *adminServer) getRecord(w http.ResponseWriter, r *http.Request) {
	imageName := chi.URLParam(r, "imageName")

	record, err := s.svc.GetRecord(r.Context(), imageName)
	if err != nil {
		if errors.Is(err, imagemeta.ErrRecordNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "record not found"})
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": err.Error()})
		return
	}

	render.JSON(w, r, record)
}
