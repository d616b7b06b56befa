package ingest

import (
	"encoding/json"
	"errors"
	"mime"
	"strings"
)

// Submission is the transient transport envelope of one request. RawBody
// holds the exact transmitted bytes: signature verification hashes these and
// nothing else. FormValues carries pre-parsed key/value pairs for form
// transports, where the HTTP layer already did the decoding.
type Submission struct {
	ContentType    string
	RawBody        []byte
	FormValues     map[string]string
	Origin         string
	Referer        string
	UserAgent      string
	IP             string
	Signature      string
	IdempotencyKey string
}

// IsJSON reports whether the body is a JSON object. Only JSON submissions can
// be signature-checked; plain HTML form posts cannot set custom headers.
func (s *Submission) IsJSON() bool {
	mt, _, err := mime.ParseMediaType(s.ContentType)
	if err != nil {
		return strings.HasPrefix(strings.ToLower(s.ContentType), "application/json")
	}
	return mt == "application/json"
}

// Fields parses the body into a flat field map. JSON values keep their
// decoded types so numeric and boolean coercion can distinguish a JSON number
// from a numeric string; form values are always strings.
func (s *Submission) Fields() (map[string]any, *Error) {
	if s.IsJSON() {
		if len(s.RawBody) == 0 {
			return nil, newError(KindMalformedBody, errors.New("empty body"))
		}
		var fields map[string]any
		if err := json.Unmarshal(s.RawBody, &fields); err != nil {
			return nil, newError(KindMalformedBody, err)
		}
		return fields, nil
	}

	if s.FormValues == nil {
		return nil, newError(KindMalformedBody, errors.New("no form fields"))
	}
	fields := make(map[string]any, len(s.FormValues))
	for k, v := range s.FormValues {
		fields[k] = v
	}
	return fields, nil
}
