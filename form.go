package nanohttp

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
)

// FormField is one decoded application/x-www-form-urlencoded pair
type FormField struct {
	Name  string
	Value string
}

// MultiPart is one part of a multipart/form-data body
type MultiPart struct {
	// Headers holds the part headers with lower-cased names
	Headers map[string]string
	Body    []byte
}

// Name returns the form field name from Content-Disposition
func (p MultiPart) Name() string {
	return p.dispositionParam("name")
}

// FileName returns the uploaded file name from Content-Disposition
func (p MultiPart) FileName() string {
	return p.dispositionParam("filename")
}

func (p MultiPart) dispositionParam(key string) string {
	disposition, ok := p.Headers["content-disposition"]
	if !ok {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return params[key]
}

// URLEncodedForm decodes the body as application/x-www-form-urlencoded.
// Only requests with that content type yield fields.
func (r *Request) URLEncodedForm() []FormField {
	contentType, _ := r.Header("content-type")
	mediaType, _, _ := strings.Cut(contentType, ";")
	if !strings.EqualFold(strings.TrimSpace(mediaType), "application/x-www-form-urlencoded") {
		return nil
	}
	var fields []FormField
	for _, param := range parseQuery(string(r.Body)) {
		fields = append(fields, FormField(param))
	}
	return fields
}

// MultiPartFormData splits a multipart/form-data body into parts. Parts
// decoded before a malformed one are still returned.
func (r *Request) MultiPartFormData() []MultiPart {
	contentType, ok := r.Header("content-type")
	if !ok {
		return nil
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.EqualFold(mediaType, "multipart/form-data") {
		return nil
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil
	}

	reader := multipart.NewReader(bytes.NewReader(r.Body), boundary)
	var parts []MultiPart
	for {
		part, err := reader.NextRawPart()
		if err != nil {
			return parts
		}
		body, err := io.ReadAll(part)
		if err != nil {
			return parts
		}
		headers := make(map[string]string, len(part.Header))
		for name, values := range part.Header {
			if len(values) > 0 {
				headers[strings.ToLower(name)] = values[len(values)-1]
			}
		}
		parts = append(parts, MultiPart{Headers: headers, Body: body})
	}
}
