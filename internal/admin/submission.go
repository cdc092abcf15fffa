package admin

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"

	"github.com/debemdeboas/folio/internal/config"
	"github.com/debemdeboas/folio/internal/imagehost"
	"github.com/debemdeboas/folio/internal/model"
)

// Submission is a frozen draft ready to send: either a JSONPayload or a
// MultipartPayload.
type Submission interface {
	Payload() model.Fields
	encode() (body io.Reader, contentType string, err error)
}

type JSONPayload struct {
	Fields model.Fields
}

func (p JSONPayload) Payload() model.Fields {
	return p.Fields
}

func (p JSONPayload) encode() (io.Reader, string, error) {
	data, err := json.Marshal(p.Fields)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), config.CTypeJSON, nil
}

// MultipartPayload carries the fields as JSON in the payload part and the staged
// file in the image part.
type MultipartPayload struct {
	Fields model.Fields
	Image  PendingImage
}

func (p MultipartPayload) Payload() model.Fields {
	return p.Fields
}

func (p MultipartPayload) encode() (io.Reader, string, error) {
	data, err := json.Marshal(p.Fields)
	if err != nil {
		return nil, "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField(config.PartPayload, string(data)); err != nil {
		return nil, "", err
	}
	part, err := mw.CreatePart(imagehost.FilePartHeader(config.PartImage, p.Image.Filename, p.Image.ContentType))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(p.Image.Data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &body, mw.FormDataContentType(), nil
}
