package dashtest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
)

func MakeRequest(method, path, token string, body any) *http.Request {
	var buffer io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		buffer = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buffer)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// ========== ADMIN ==========

func ResetStore() *http.Request {
	return MakeRequest(http.MethodPost, "/admin/reset", "", nil)
}

func GetUserCount() *http.Request {
	return MakeRequest(http.MethodGet, "/admin/users/count", "", nil)
}

// ========== AUTH ==========

func Register(name, email, password string) *http.Request {
	return MakeRequest(http.MethodPost, "/api/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func Login(email, password string) *http.Request {
	return MakeRequest(http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
}

func GetMe(token string) *http.Request {
	return MakeRequest(http.MethodGet, "/api/auth/me", token, nil)
}

func UpdateProfile(token string, fields map[string]any) *http.Request {
	return MakeRequest(http.MethodPut, "/api/auth/profile", token, fields)
}

func ChangePassword(token, current, next string) *http.Request {
	return MakeRequest(http.MethodPut, "/api/auth/change-password", token, map[string]any{
		"currentPassword": current,
		"newPassword":     next,
	})
}

// UploadAvatar sends data as the multipart field "avatar".
func UploadAvatar(token, filename string, data []byte) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	if err != nil {
		panic(err)
	}
	if _, err := part.Write(data); err != nil {
		panic(err)
	}
	if err := mw.Close(); err != nil {
		panic(err)
	}

	req := httptest.NewRequest(http.MethodPut, "/api/auth/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// ========== RESOURCES ==========

// kind is the plural path segment: tasks, notes, bookmarks, events, widgets.

func Create(token, kind string, body map[string]any) *http.Request {
	return MakeRequest(http.MethodPost, "/api/"+kind, token, body)
}

func List(token, kind string, query url.Values) *http.Request {
	path := "/api/" + kind
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return MakeRequest(http.MethodGet, path, token, nil)
}

func Get(token, kind, id string) *http.Request {
	return MakeRequest(http.MethodGet, "/api/"+kind+"/"+id, token, nil)
}

func Update(token, kind, id string, body map[string]any) *http.Request {
	return MakeRequest(http.MethodPut, "/api/"+kind+"/"+id, token, body)
}

func Delete(token, kind, id string) *http.Request {
	return MakeRequest(http.MethodDelete, "/api/"+kind+"/"+id, token, nil)
}

func BatchUpdateWidgets(token string, items []map[string]any) *http.Request {
	return MakeRequest(http.MethodPut, "/api/widgets/batch/update", token, map[string]any{
		"widgets": items,
	})
}
