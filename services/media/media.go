// Package mediasvc uploads profile pictures and payment vouchers to the media host.
package mediasvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/colegio/core"
)

// Allowed are the accepted MIME types, sniffed from the content.
var Allowed = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}

var (
	ErrNotConfigured = errors.New("la subida de archivos no está configurada")
	ErrEmptyFile     = errors.New("el archivo está vacío")
	ErrUnsupported   = errors.New("solo se permiten imágenes JPG, PNG, WEBP o documentos PDF")
)

// HostError is a non-2xx answer of the media host. It says nothing about the user's session.
type HostError struct {
	Status  int
	Message string
}

func (err *HostError) Error() string {
	if err.Message == "" {
		return "el servidor de archivos rechazó la subida"
	}
	return err.Message
}

// Rejected reports whether the host refused the file itself.
func (err *HostError) Rejected() bool {
	switch err.Status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// Upload is a stored file.
type Upload struct {
	URL         string `json:"url"`
	ContentType string `json:"tipo"`
	Size        int64  `json:"tamano"`
}

type Uploader struct {
	conf   core.MediaConfig
	client rest.Client
}

func NewUploader(conf core.MediaConfig, httpClient *http.Client) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Uploader{conf: conf, client: rest.Client{HTTPClient: httpClient}}
}

// Check sniffs data and enforces the size limit. It returns the detected MIME type.
func (u *Uploader) Check(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fileError(ErrEmptyFile)
	}
	if u.conf.MaxSize > 0 && int64(len(data)) > u.conf.MaxSize {
		return "", fileError(errors.Errorf("el archivo supera el tamaño máximo de %d MB", u.conf.MaxSize>>20))
	}
	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), Allowed...) {
		return "", fileError(ErrUnsupported)
	}
	return mtype.String(), nil
}

// Upload checks the file read from r and posts it to the media host (unsigned upload preset).
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	if u.conf.UploadURL == "" {
		return Upload{}, ErrNotConfigured
	}
	limit := u.conf.MaxSize
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := ioutil.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Upload{}, errors.Wrap(err, "reading upload")
	}
	ctype, err := u.Check(data)
	if err != nil {
		return Upload{}, err
	}

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return Upload{}, errors.Wrap(err, "creating file part")
	}
	if _, err = part.Write(data); err != nil {
		return Upload{}, errors.Wrap(err, "writing file part")
	}
	if u.conf.UploadPreset != "" {
		if err = w.WriteField("upload_preset", u.conf.UploadPreset); err != nil {
			return Upload{}, errors.Wrap(err, "writing preset field")
		}
	}
	if err = w.Close(); err != nil {
		return Upload{}, errors.Wrap(err, "closing multipart body")
	}

	res, err := u.client.SendWithContext(ctx, rest.Request{
		Method:  rest.Post,
		BaseURL: u.conf.UploadURL,
		Headers: map[string]string{"Content-Type": w.FormDataContentType(), "Accept": "application/json"},
		Body:    body.Bytes(),
	})
	if err != nil {
		return Upload{}, errors.Wrap(err, "posting upload")
	}

	var payload struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal([]byte(res.Body), &payload)
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Upload{}, &HostError{Status: res.StatusCode, Message: payload.Error.Message}
	}

	url := payload.SecureURL
	if url == "" {
		url = payload.URL
	}
	if url == "" {
		return Upload{}, errors.Errorf("media host answered %d without url", res.StatusCode)
	}
	return Upload{URL: url, ContentType: ctype, Size: int64(len(data))}, nil
}

func fileError(err error) error {
	return core.NewValidationError(err, core.FieldError{Field: "archivo", Error: err.Error()})
}
