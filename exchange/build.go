package exchange

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"

	"github.com/npc-z/minihttpie/input"
	"github.com/npc-z/minihttpie/version"
	"github.com/pkg/errors"
)

// BuildHTTPRequest assembles the final request from a parsed Input.
// The Content-Type determined by the body encoding and the default
// User-Agent are only applied when the user did not set them explicitly.
func BuildHTTPRequest(in *input.Input, options *Options) (*http.Request, error) {
	u, err := buildURL(in)
	if err != nil {
		return nil, err
	}

	header, err := buildHTTPHeader(in)
	if err != nil {
		return nil, err
	}

	bodyTuple, err := buildHTTPBody(in)
	if err != nil {
		return nil, err
	}

	if header.Get("Content-Type") == "" && bodyTuple.contentType != "" {
		header.Set("Content-Type", bodyTuple.contentType)
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", "minihttpie/"+version.Current().String())
	}
	if options.Auth.Enabled {
		header.Set("Authorization", "Basic "+basicCredentials(options.Auth))
	}

	r := http.Request{
		Method:        string(in.Method),
		URL:           u,
		Header:        header,
		Host:          header.Get("Host"),
		Body:          bodyTuple.body,
		GetBody:       bodyTuple.getBody,
		ContentLength: bodyTuple.contentLength,
	}
	return &r, nil
}

func basicCredentials(auth AuthOptions) string {
	credentials := auth.UserName + ":" + auth.Password
	return base64.StdEncoding.EncodeToString([]byte(credentials))
}

// buildURL appends token-derived parameters to the URL's query string.
// The existing query is preserved verbatim and parameters are appended in
// input order, duplicates included.
func buildURL(in *input.Input) (*url.URL, error) {
	u := *in.URL
	if len(in.Parameters) == 0 {
		return &u, nil
	}
	q, err := encodePairs(in.Parameters)
	if err != nil {
		return nil, err
	}
	if u.RawQuery == "" {
		u.RawQuery = q
	} else {
		u.RawQuery = u.RawQuery + "&" + q
	}
	return &u, nil
}

// encodePairs is an order-preserving url.Values.Encode: duplicate names are
// kept and nothing is sorted.
func encodePairs(fields []input.Field) (string, error) {
	var b strings.Builder
	for i, field := range fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(field.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String(), nil
}

func buildHTTPHeader(in *input.Input) (http.Header, error) {
	header := make(http.Header)
	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return nil, err
		}
		// Last one wins for repeated header names.
		header.Set(field.Name, value)
	}
	return header, nil
}

type bodyTuple struct {
	body          io.ReadCloser
	getBody       func() (io.ReadCloser, error)
	contentLength int64
	contentType   string
}

func newBodyTuple(body []byte, contentType string) bodyTuple {
	return bodyTuple{
		body: ioutil.NopCloser(bytes.NewReader(body)),
		getBody: func() (io.ReadCloser, error) {
			return ioutil.NopCloser(bytes.NewReader(body)), nil
		},
		contentLength: int64(len(body)),
		contentType:   contentType,
	}
}

func buildHTTPBody(in *input.Input) (bodyTuple, error) {
	switch in.Body.BodyType {
	case input.EmptyBody:
		return bodyTuple{}, nil
	case input.JSONBody:
		return buildJSONBody(in)
	case input.FormBody:
		return buildFormBody(in)
	case input.RawBody:
		return buildRawBody(in)
	default:
		return bodyTuple{}, errors.Errorf("unknown body type: %v", in.Body.BodyType)
	}
}

type jsonPair struct {
	name  string
	value interface{}
}

// buildJSONBody folds the body fields into a JSON object in CLI order.
// A later duplicate key overwrites the earlier value in place, whichever
// of the plain or raw JSON forms either of them used.
func buildJSONBody(in *input.Input) (bodyTuple, error) {
	var pairs []jsonPair
	index := map[string]int{}
	for _, field := range in.Body.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return bodyTuple{}, err
		}
		var v interface{} = value
		if field.IsRawJSON {
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return bodyTuple{}, errors.Wrapf(err, "parsing JSON value of '%s'", field.Name)
			}
		}
		if i, ok := index[field.Name]; ok {
			pairs[i].value = v
		} else {
			index[field.Name] = len(pairs)
			pairs = append(pairs, jsonPair{name: field.Name, value: v})
		}
	}
	body, err := marshalJSONObject(pairs)
	if err != nil {
		return bodyTuple{}, errors.Wrap(err, "marshaling JSON of HTTP body")
	}
	return newBodyTuple(body, "application/json"), nil
}

// marshalJSONObject emits the pairs as an object without sorting keys the
// way encoding/json does for maps.
func marshalJSONObject(pairs []jsonPair) ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, pair := range pairs {
		if i > 0 {
			buffer.WriteByte(',')
		}
		name, err := json.Marshal(pair.name)
		if err != nil {
			return nil, err
		}
		buffer.Write(name)
		buffer.WriteByte(':')
		value, err := json.Marshal(pair.value)
		if err != nil {
			return nil, err
		}
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

func buildFormBody(in *input.Input) (bodyTuple, error) {
	body, err := encodePairs(in.Body.Fields)
	if err != nil {
		return bodyTuple{}, err
	}
	return newBodyTuple([]byte(body), "application/x-www-form-urlencoded"), nil
}

func buildRawBody(in *input.Input) (bodyTuple, error) {
	return newBodyTuple(in.Body.Raw, "application/json"), nil
}

func resolveFieldValue(field input.Field) (string, error) {
	if field.IsFile {
		data, err := ioutil.ReadFile(field.Value)
		if err != nil {
			return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
		}
		return string(data), nil
	}
	return field.Value, nil
}
