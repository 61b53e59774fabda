package httpserver

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

func productFilter(r *http.Request) domain.ProductFilter {
	q := r.URL.Query()
	return domain.ProductFilter{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Tag:         q.Get("tag"),
		Gender:      domain.Gender(strings.ToUpper(q.Get("gender"))),
		Query:       strings.TrimSpace(q.Get("q")),
		Sort:        domain.ProductSort(q.Get("sort")),
		Page:        queryInt(r, "page"),
		PageSize:    queryInt(r, "pageSize"),
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	f := productFilter(r)
	if r.URL.Query().Get("includeInactive") == "true" {
		f.IncludeInactive = s.optionalAdmin(r)
	}
	page, err := s.Products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.Products.Get(r.Context(), r.PathValue("ref"), s.optionalAdmin(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) exportProducts(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	// se arma en memoria para poder responder JSON si falla a mitad de camino
	var buf bytes.Buffer
	if err := s.Products.Export(r.Context(), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", s.Products.Exporter.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+s.Products.Exporter.FileName()+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	var in usecase.ProductInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.Products.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.ProductPatch
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.Products.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createVariant(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.VariantInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Products.AddVariant(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) updateVariant(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	variantID, err := pathID(r, "variantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.VariantPatch
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	v, err := s.Products.UpdateVariant(r.Context(), id, variantID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVariant(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	variantID, err := pathID(r, "variantId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Products.DeleteVariant(r.Context(), id, variantID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createImage(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.ImageInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	img, err := s.Products.AddImage(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, img)
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Products.DeleteImage(r.Context(), id, imageID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
