package validators

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/movies-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestReadFieldsMultipart(t *testing.T) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("name", "Heat"))
	require.NoError(t, w.WriteField("year", ""))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/movies", body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	fields, err := ReadFields(req)
	require.NoError(t, err)
	require.Equal(t, Fields{"name": "Heat", "year": ""}, fields)
}

func TestReadFieldsURLEncoded(t *testing.T) {
	form := url.Values{"name": {"Heat"}, "rating": {"8.3"}}
	req := httptest.NewRequest(http.MethodPost, "/api/movies", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	fields, err := ReadFields(req)
	require.NoError(t, err)
	require.Equal(t, "8.3", fields["rating"])
}

func TestReadFieldsJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/movies/x", strings.NewReader(`{"name":"Heat","year":1995,"rating":0,"description":null}`))
	req.Header.Set("Content-Type", "application/json")

	fields, err := ReadFields(req)
	require.NoError(t, err)
	require.Equal(t, Fields{"name": "Heat", "year": "1995", "rating": "0"}, fields)

	rating, err := fields.Float("rating")
	require.NoError(t, err)
	require.NotNil(t, rating)
	require.Equal(t, 0.0, *rating)
}

func TestReadFieldsJSONRejectsObjects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/movies", strings.NewReader(`{"name":{"first":"Heat"}}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := ReadFields(req)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestReadFieldsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/movies", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")

	_, err := ReadFields(req)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestReadFieldsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/movies", nil)
	fields, err := ReadFields(req)
	require.NoError(t, err)
	require.Empty(t, fields)
}

func TestFieldsNumbers(t *testing.T) {
	fields := Fields{"year": " 2010 ", "yearf": "2010.0", "blank": "  ", "bad": "abc", "frac": "1999.5", "inf": "Inf"}

	v, err := fields.Int("year")
	require.NoError(t, err)
	require.Equal(t, 2010, *v)

	v, err = fields.Int("yearf")
	require.NoError(t, err)
	require.Equal(t, 2010, *v)

	v, err = fields.Int("blank")
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = fields.Int("missing")
	require.NoError(t, err)
	require.Nil(t, v)

	_, err = fields.Int("bad")
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = fields.Int("frac")
	require.Error(t, err)

	_, err = fields.Float("bad")
	require.Error(t, err)

	_, err = fields.Float("inf")
	require.Error(t, err)
}

func TestFieldsString(t *testing.T) {
	fields := Fields{"description": ""}
	require.NotNil(t, fields.String("description"))
	require.Equal(t, "", *fields.String("description"))
	require.Nil(t, fields.String("name"))
}

func TestErrorsMergesDetails(t *testing.T) {
	fields := Fields{"year": "x", "rating": "y"}
	_, yearErr := fields.Int("year")
	_, ratingErr := fields.Float("rating")

	err := Errors(yearErr, nil, ratingErr)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, map[string]string{"year": "must be an integer", "rating": "must be a number"}, typed.Details())

	require.NoError(t, Errors(nil, nil))
}

func TestSanitizeString(t *testing.T) {
	require.Equal(t, "abc", SanitizeString("  abcdef ", 3))
	require.Equal(t, "abcdef", SanitizeString("  abcdef ", 0))
}
