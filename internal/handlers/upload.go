package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/ukydev/rmc-fleet/internal/models"
)

const (
	maxUploadSize = 5 << 20
	uploadField   = "file"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

// isMultipart reports whether r carries a multipart/form-data body.
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// decodeUpload decodes a JSON or multipart/form-data body into v and returns
// the uploaded file, if any. Multipart values are re-encoded as JSON so both
// forms share the request decoding; numeric names fields sent as numbers and
// values that look like JSON objects are passed through unquoted.
func decodeUpload(w http.ResponseWriter, r *http.Request, v interface{}, numeric ...string) (*models.Attachment, error) {
	if !isMultipart(r) {
		return nil, decodeJSON(r, v)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, badRequest("File too large. Maximum size is 5MB.")
		}
		return nil, badRequest("Invalid form data")
	}

	fields, err := formFields(r.MultipartForm.Value, numeric)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return nil, badRequest("Invalid request body: " + err.Error())
	}
	return readAttachment(r)
}

func formFields(values map[string][]string, numeric []string) (map[string]interface{}, error) {
	isNumeric := make(map[string]bool, len(numeric))
	for _, name := range numeric {
		isNumeric[name] = true
	}

	fields := make(map[string]interface{}, len(values))
	for name, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		value := vals[0]
		switch {
		case isNumeric[name]:
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, badRequest(fmt.Sprintf("%s must be a number", name))
			}
			fields[name] = n
		case value[0] == '{' && json.Valid([]byte(value)):
			fields[name] = json.RawMessage(value)
		default:
			fields[name] = value
		}
	}
	return fields, nil
}

// readAttachment reads the file part of a parsed multipart form. The content
// type is sniffed from the bytes, not taken from the client.
func readAttachment(r *http.Request) (*models.Attachment, error) {
	file, header, err := r.FormFile(uploadField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, badRequest("Invalid file upload")
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		return nil, badRequest("File too large. Maximum size is 5MB.")
	}
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, badRequest("File too large. Maximum size is 5MB.")
	}

	contentType, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	if !allowedUploadTypes[contentType] {
		return nil, badRequest("Invalid file type. Only PDF, JPG, and PNG are allowed.")
	}
	return &models.Attachment{
		Name:        header.Filename,
		ContentType: contentType,
		Data:        base64.StdEncoding.EncodeToString(data),
	}, nil
}

// serveAttachment writes the decoded bytes of a stored file.
func serveAttachment(w http.ResponseWriter, r *http.Request, file *models.Attachment) {
	data, err := base64.StdEncoding.DecodeString(file.Data)
	if err != nil {
		writeError(w, r, fmt.Errorf("decode stored file %q: %w", file.Name, err))
		return
	}
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
