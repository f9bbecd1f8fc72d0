package validators

import (
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/http"
	"strconv"

	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
)

const defaultMaxMemory = 32 << 20

// Fields holds the textual form values of a request, keyed by field name.
// A key is present only when the client sent it.
type Fields map[string]string

// ReadFields collects the scalar fields of a multipart, urlencoded or JSON body.
// Multipart forms already parsed by upstream middleware are reused.
func ReadFields(r *http.Request) (Fields, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(defaultMaxMemory); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
			}
		}
		return firstValues(r.MultipartForm.Value), nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid form body")
		}
		return firstValues(r.PostForm), nil
	default:
		return readJSONFields(r)
	}
}

func firstValues(values map[string][]string) Fields {
	fields := Fields{}
	for key, vals := range values {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}
	return fields
}

func readJSONFields(r *http.Request) (Fields, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return Fields{}, nil
	}
	raw := map[string]any{}
	if err := DecodeJSONBody(r, &raw); err != nil {
		return nil, err
	}

	fields := Fields{}
	invalid := map[string]string{}
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			fields[key] = v
		case json.Number:
			fields[key] = v.String()
		case bool:
			fields[key] = strconv.FormatBool(v)
		default:
			invalid[key] = "must be a scalar value"
		}
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(invalid)
	}
	return fields, nil
}

// String returns the raw value of key when supplied.
func (f Fields) String(key string) *string {
	v, ok := f[key]
	if !ok {
		return nil
	}
	return &v
}

// Int parses key as an integer. Missing and blank values are treated as not supplied.
func (f Fields) Int(key string) (*int, error) {
	raw := SanitizeString(f[key], 0)
	if raw == "" {
		return nil, nil
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return &v, nil
	}
	if fl, err := strconv.ParseFloat(raw, 64); err == nil && fl == math.Trunc(fl) && math.Abs(fl) <= math.MaxInt32 {
		v := int(fl)
		return &v, nil
	}
	return nil, fieldError(key, "must be an integer")
}

// Float parses key as a finite number. Missing and blank values are treated as not supplied.
func (f Fields) Float(key string) (*float64, error) {
	raw := SanitizeString(f[key], 0)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fieldError(key, "must be a number")
	}
	return &v, nil
}

func fieldError(key, msg string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s %s", key, msg)).
		WithDetails(map[string]string{key: msg})
}

// Errors merges the details of several field errors into one validation error.
func Errors(errs ...error) error {
	details := map[string]string{}
	var first error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		typed := pkgerrors.As(err)
		if typed == nil {
			return err
		}
		if d, ok := typed.Details().(map[string]string); ok {
			for k, v := range d {
				details[k] = v
			}
		}
	}
	if first == nil {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

