package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"mercari/internal/api"
)

const sniffLen = 512

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.imageOptions.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.imageOptions.MultipartMaxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.writeError(w, r, classifyMultipartError(err))
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	in := CreateItemInput{
		Name:     r.FormValue("name"),
		Category: r.FormValue("category"),
	}

	file, _, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		buffered := bufio.NewReader(file)
		peek, peekErr := buffered.Peek(sniffLen)
		if peekErr != nil && !errors.Is(peekErr, io.EOF) && !errors.Is(peekErr, bufio.ErrBufferFull) {
			s.writeError(w, r, badRequestCode(fmt.Errorf("read image: %w", peekErr), ErrCodeInvalidArgument))
			return
		}
		if len(peek) > 0 {
			in.Image = buffered
			in.MediaType = http.DetectContentType(peek)
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		s.writeError(w, r, classifyMultipartError(err))
		return
	}

	item, err := s.service.CreateItem(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, api.AddItemResponse{
		Message: fmt.Sprintf("item received: %s, category: %s, image_name: %s", item.Name, item.Category, item.ImageName),
		ID:      item.ID,
	})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: toItemResponses(items)})
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathItemID(w, r)
	if !ok {
		return
	}

	item, err := s.service.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toItemResponse(item))
}

// A missing keyword parameter behaves like an empty keyword.
func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.SearchItems(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ItemListResponse{Items: toItemResponses(items)})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.service.ListCategories(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.CategoryListResponse{Categories: toCategoryResponses(categories)})
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, served, err := s.service.OpenImage(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	if served != name {
		s.log().Debug("image not found, serving default", "requested", name, "served", served, "request_id", requestIDFromContext(r.Context()))
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if f, ok := rc.(io.Seeker); ok {
		if size, err := f.Seek(0, io.SeekEnd); err == nil {
			if _, err := f.Seek(0, io.SeekStart); err == nil {
				w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
			}
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Error("write image response", "image", served, "error", err)
	}
}
