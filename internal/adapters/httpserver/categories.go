package httpserver

import (
	"net/http"

	"github.com/phenrril/storefront/internal/domain"
	"github.com/phenrril/storefront/internal/usecase"
)

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("includeInactive") == "true" && s.optionalAdmin(r)
	list, err := s.Categories.List(r.Context(), includeInactive)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	c, err := s.Categories.Get(r.Context(), r.PathValue("ref"), s.optionalAdmin(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	var in usecase.CategoryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.Categories.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.CategoryPatch
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.Categories.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createSubcategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.SubcategoryInput
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.Categories.CreateSub(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) updateSubcategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subID, err := pathID(r, "subId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in usecase.SubcategoryPatch
	if err := decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	sub, err := s.Categories.UpdateSub(r.Context(), id, subID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) deleteSubcategory(w http.ResponseWriter, r *http.Request, _ *domain.Principal) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	subID, err := pathID(r, "subId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.Categories.DeleteSub(r.Context(), id, subID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
