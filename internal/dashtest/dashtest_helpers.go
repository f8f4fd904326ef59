// Package dashtest holds request builders and fixtures shared by the
// package tests.
package dashtest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
)

func Call(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

// DecodeBody decodes the recorded JSON body into a generic map without
// consuming it. Numbers stay json.Number.
func DecodeBody(w *httptest.ResponseRecorder) (map[string]any, error) {
	var body map[string]any
	decoder := json.NewDecoder(bytes.NewReader(w.Body.Bytes()))
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func GetJSONField(w *httptest.ResponseRecorder, field string) (any, error) {
	body, err := DecodeBody(w)
	if err != nil {
		return nil, err
	}
	val, ok := body[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}

	if num, ok := val.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		if f, err := num.Float64(); err == nil {
			return f, nil
		}
	}

	return val, nil
}

// GetJSONPath walks a dotted path through the response body. Numeric
// segments index arrays: "tasks.0.title".
func GetJSONPath(w *httptest.ResponseRecorder, path string) (any, error) {
	body, err := DecodeBody(w)
	if err != nil {
		return nil, err
	}
	var cur any = body
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, fmt.Errorf("field %s not found in response", path)
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %s out of range in %s", seg, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %s at %s", path, seg)
		}
	}
	if num, ok := cur.(json.Number); ok {
		if i, err := num.Int64(); err == nil {
			return i, nil
		}
		if f, err := num.Float64(); err == nil {
			return f, nil
		}
	}
	return cur, nil
}
