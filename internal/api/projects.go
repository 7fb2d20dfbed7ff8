package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jnthodge/visual-bible/core/errors"
	"github.com/jnthodge/visual-bible/internal/logging"
	"github.com/jnthodge/visual-bible/internal/project"
	"github.com/jnthodge/visual-bible/internal/render"
	"github.com/jnthodge/visual-bible/internal/server"
	"github.com/jnthodge/visual-bible/internal/validation"
)

// CreateResponse is returned by POST /api/projects.
type CreateResponse struct {
	ID       string      `json:"id"`
	Message  string      `json:"message"`
	Warnings []string    `json:"warnings"`
	Errors   []LineError `json:"errors"`
}

const multipartMemory = 1 << 20

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	if !server.ValidateContentType(r.Header.Get("Content-Type"), []string{"multipart/form-data"}) {
		respondError(w, http.StatusUnsupportedMediaType, CodeUnsupportedMedia, "expected multipart/form-data")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
				fmt.Sprintf("request exceeds %d bytes", tooLarge.Limit))
			return
		}
		respondError(w, http.StatusBadRequest, CodeBadRequest, "malformed multipart body: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	sub := project.Submission{
		Name:       r.FormValue("name"),
		OutputPath: r.FormValue("outputPath"),
		Text:       r.FormValue("textReferences"),
	}

	file, _, err := r.FormFile("passagesFile")
	switch {
	case err == nil:
		defer file.Close()
		body, err := validation.TextUpload(file)
		if err != nil {
			respondErr(w, r, errors.NewValidation("passagesFile", err.Error()))
			return
		}
		sub.File = body
	case errors.Is(err, http.ErrMissingFile):
	default:
		respondError(w, http.StatusBadRequest, CodeBadRequest, "passagesFile: "+err.Error())
		return
	}

	res, err := s.projects.Create(r.Context(), sub)
	if errors.Is(err, errors.ErrNoReferencesResolved) {
		respondErrorDetails(w, http.StatusUnprocessableEntity, CodeNoReferencesResolved,
			"no references could be resolved", lineErrors(res.Errors))
		return
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	respond(w, http.StatusOK, CreateResponse{
		ID:       res.Record.ID,
		Message:  res.Message,
		Warnings: warnings,
		Errors:   lineErrors(res.Errors),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	records, err := s.projects.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondMeta(w, http.StatusOK, records, &APIMeta{Total: len(records)})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	rec, err := s.projects.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	if err := s.projects.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// handleProjectImage serves the highlighted PNG with the image's BLAKE3
// digest as its ETag.
func (s *Server) handleProjectImage(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	img, err := s.projects.OpenImage(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	defer img.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", `"`+img.Digest+`"`)
	http.ServeContent(w, r, "", img.ModTime, img)
}

func (s *Server) handleExportProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	rec, err := s.projects.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	// Headers are committed by the first archive write, so a missing image
	// must be caught before streaming starts.
	img, err := s.projects.OpenImage(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	img.Close()

	filename := strings.TrimSuffix(render.FileName(rec.Name), ".png") + ".tar.xz"
	w.Header().Set("Content-Type", "application/x-xz")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := s.projects.Export(r.Context(), id, w); err != nil {
		logging.ErrorContext(r.Context(), "export failed", "project_id", id, "error", err)
	}
}

func (s *Server) handleImportProject(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxBundleSize)

	var body io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		file, err := bundleFile(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, CodeBadRequest, "bundle: "+err.Error())
			return
		}
		defer file.Close()
		body = file
	}

	rec, err := s.projects.Import(r.Context(), body)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusCreated, rec)
}

func bundleFile(r *http.Request) (multipart.File, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("bundle")
	return file, err
}

func projectID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if err := ValidateID(id); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return "", false
	}
	return id, true
}
