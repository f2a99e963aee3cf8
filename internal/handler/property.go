package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/media"
	"github.com/msomdec/estate-listings/internal/service"
)

const (
	// maxUploadBody bounds a whole multipart request, images included.
	maxUploadBody = 64 << 20
	maxImageFiles = 10
)

// PropertyHandler serves listing endpoints.
type PropertyHandler struct {
	properties *service.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler.
func NewPropertyHandler(properties *service.PropertyService) *PropertyHandler {
	return &PropertyHandler{properties: properties}
}

// HandleList returns all listings, newest first. Query parameters search,
// type, minPrice, maxPrice and bedrooms narrow the result; values that do
// not parse are ignored.
// GET /api/properties
func (h *PropertyHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	properties, err := h.properties.List(r.Context(), parseFilter(r))
	if err != nil {
		writeServiceError(w, "list properties", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTOs(properties))
}

func parseFilter(r *http.Request) domain.PropertyFilter {
	q := r.URL.Query()
	f := domain.PropertyFilter{Search: strings.TrimSpace(q.Get("search"))}
	if lt, ok := domain.ParseListingType(q.Get("type")); ok {
		f.Type = lt
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil && v >= 0 {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil && v >= 0 {
		f.MaxPrice = &v
	}
	if v, err := strconv.Atoi(q.Get("bedrooms")); err == nil && v > 0 {
		f.MinBedrooms = &v
	}
	return f
}

// HandleListMine returns the caller's listings.
// GET /api/properties/my-properties
func (h *PropertyHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	properties, err := h.properties.ListMine(r.Context(), who)
	if err != nil {
		writeServiceError(w, "list own properties", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTOs(properties))
}

// HandleGet returns one listing and counts the view.
// GET /api/properties/{id}
func (h *PropertyHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.properties.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, "get property", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(p))
}

// HandleCreate stores a listing owned by the caller. The body is either
// multipart/form-data (images under "images" or "images[]") or JSON.
// POST /api/properties
func (h *PropertyHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	in, files, err := readPropertyRequest(w, r)
	if err != nil {
		writeServiceError(w, "read property request", err)
		return
	}

	p, err := h.properties.Create(r.Context(), who, in, files)
	if err != nil {
		writeServiceError(w, "create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(p))
}

// HandleUpdate merges the submitted fields into a listing the caller owns.
// PUT /api/properties/{id}
func (h *PropertyHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	current, ok := loadedResource[*domain.Property](w, r, "update property")
	if !ok {
		return
	}
	in, files, err := readPropertyRequest(w, r)
	if err != nil {
		writeServiceError(w, "read property request", err)
		return
	}

	p, err := h.properties.Edit(r.Context(), current, in, files)
	if err != nil {
		writeServiceError(w, "update property", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(p))
}

// HandleDelete removes a listing the caller owns, along with its leads.
// DELETE /api/properties/{id}
func (h *PropertyHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := loadedResource[*domain.Property](w, r, "delete property")
	if !ok {
		return
	}
	if err := h.properties.Remove(r.Context(), p); err != nil {
		writeServiceError(w, "delete property", err)
		return
	}
	writeMessage(w, "Deleted")
}

// readPropertyRequest turns either body format into raw text fields so the
// service applies one normalization path.
func readPropertyRequest(w http.ResponseWriter, r *http.Request) (service.PropertyInput, []media.File, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readPropertyForm(w, r)
	}

	fields := map[string]json.RawMessage{}
	if err := readJSON(w, r, &fields); err != nil {
		return service.PropertyInput{}, nil, err
	}
	in := service.PropertyInput{}
	for name, dst := range propertyFields(&in) {
		*dst = rawText(fields[name])
	}
	return in, nil, nil
}

func readPropertyForm(w http.ResponseWriter, r *http.Request) (service.PropertyInput, []media.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return service.PropertyInput{}, nil, fmt.Errorf("%w: could not read form data", domain.ErrInvalidInput)
	}

	in := service.PropertyInput{}
	for name, dst := range propertyFields(&in) {
		values := r.MultipartForm.Value[name]
		if listFields[name] {
			*dst = formText(values)
		} else if len(values) > 0 {
			*dst = values[0]
		}
	}

	var headers []*multipart.FileHeader
	headers = append(headers, r.MultipartForm.File["images"]...)
	headers = append(headers, r.MultipartForm.File["images[]"]...)
	if len(headers) > maxImageFiles {
		return in, nil, fmt.Errorf("%w: at most %d images per request", domain.ErrInvalidInput, maxImageFiles)
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		f, err := readFormFile(fh)
		if err != nil {
			return in, nil, err
		}
		files = append(files, f)
	}
	return in, files, nil
}

func readFormFile(fh *multipart.FileHeader) (media.File, error) {
	src, err := fh.Open()
	if err != nil {
		return media.File{}, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()

	// Read one byte past the limit so oversize files are detected rather
	// than silently truncated.
	data, err := io.ReadAll(io.LimitReader(src, media.MaxImageSize+1))
	if err != nil {
		return media.File{}, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}
	return media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func propertyFields(in *service.PropertyInput) map[string]*string {
	return map[string]*string{
		"title":          &in.Title,
		"description":    &in.Description,
		"price":          &in.Price,
		"location":       &in.Location,
		"type":           &in.Type,
		"bedrooms":       &in.Bedrooms,
		"bathrooms":      &in.Bathrooms,
		"area":           &in.Area,
		"yearBuilt":      &in.YearBuilt,
		"parking":        &in.Parking,
		"features":       &in.Features,
		"images":         &in.Images,
		"existingImages": &in.ExistingImages,
	}
}

// listFields may repeat in a form; every other field takes its first value.
var listFields = map[string]bool{
	"features":       true,
	"images":         true,
	"existingImages": true,
}

// formText joins repeated form values (features=a&features=b) into a JSON
// array so they decode the same way as a single encoded value.
func formText(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0]
	}
	b, err := json.Marshal(values)
	if err != nil {
		return strings.Join(values, ",")
	}
	return string(b)
}

// rawText renders one JSON value as form text: strings unquoted, numbers and
// booleans verbatim, arrays and objects re-encoded, null as empty.
func rawText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
