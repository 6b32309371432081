package openapi

import (
	"encoding/json"
	"testing"
)

func TestMapColumnType(t *testing.T) {
	tests := []struct {
		colType    string
		wantType   string
		wantFormat string
	}{
		{"INTEGER", "integer", "int64"},
		{"integer", "integer", "int64"},
		{"TEXT", "string", ""},
		{"varchar(255)", "string", ""},
		{"TIMESTAMP", "string", "date-time"},
		{"  real ", "number", "double"},
		{"BLOB", "string", "byte"},
		{"geometry", "string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.colType, func(t *testing.T) {
			got := MapColumnType(tt.colType)
			if got.Type != tt.wantType || got.Format != tt.wantFormat {
				t.Errorf("MapColumnType(%q) = {%q %q}, want {%q %q}",
					tt.colType, got.Type, got.Format, tt.wantType, tt.wantFormat)
			}
		})
	}
}

func TestGenerateCoversEveryRoute(t *testing.T) {
	doc := Generate(Options{BaseURL: "http://localhost:5000", ProtectNumbers: true})

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q, want 3.1.0", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:5000" {
		t.Errorf("servers = %+v", doc.Servers)
	}

	routes := []struct {
		path   string
		method string
	}{
		{"/users/register", "POST"},
		{"/users/all", "GET"},
		{"/users/delete_all", "DELETE"},
		{"/users/delete/{id}", "DELETE"},
		{"/numbers/detail_number", "POST"},
		{"/numbers/all", "GET"},
		{"/numbers/delete_all", "DELETE"},
		{"/numbers/delete/{id}", "DELETE"},
		{"/auth/login", "POST"},
		{"/auth/logout", "POST"},
		{"/health", "GET"},
	}
	for _, r := range routes {
		item := doc.Paths.Find(r.path)
		if item == nil {
			t.Errorf("missing path %s", r.path)
			continue
		}
		if item.GetOperation(r.method) == nil {
			t.Errorf("missing %s %s", r.method, r.path)
		}
	}
	if n := doc.Paths.Len(); n != len(routes) {
		t.Errorf("got %d paths, want %d", n, len(routes))
	}
}

func TestGenerateSchemas(t *testing.T) {
	doc := Generate(Options{})

	if len(doc.Servers) != 0 {
		t.Errorf("expected no servers without a base URL, got %+v", doc.Servers)
	}
	if doc.Info.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", doc.Info.Version)
	}

	for _, name := range []string{
		"ErrorResponse", "User", "PhoneNumber", "RegisterUserRequest", "RegisterResponse",
		"SaveNumberRequest", "NumberResponse", "MessageResponse", "DeleteAllResponse",
		"CredentialLogin", "LegacyLogin", "LoginResponse", "LegacyLoginResponse", "HealthResponse",
	} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing component schema %s", name)
		}
	}

	user := doc.Components.Schemas["User"].Value
	if !user.Properties["company"].Value.Nullable {
		t.Error("expected User.company to be nullable")
	}
	if user.Properties["name"].Value.Nullable {
		t.Error("expected User.name to be non-nullable")
	}
	if !user.Properties["id"].Value.ReadOnly {
		t.Error("expected User.id to be read-only")
	}
	if got := user.Properties["created_at"].Value.Format; got != "date-time" {
		t.Errorf("User.created_at format = %q, want date-time", got)
	}

	req := doc.Components.Schemas["RegisterUserRequest"].Value
	if len(req.Required) != 1 || req.Required[0] != "name" {
		t.Errorf("RegisterUserRequest.required = %v, want [name]", req.Required)
	}
}

func TestProtectNumbersSecurity(t *testing.T) {
	protected := Generate(Options{ProtectNumbers: true})
	op := protected.Paths.Find("/numbers/detail_number").Post
	if op.Security == nil || len(*op.Security) != 1 {
		t.Fatalf("expected bearer security on protected save, got %v", op.Security)
	}
	if _, ok := (*op.Security)[0][bearerScheme]; !ok {
		t.Errorf("security = %v, want %s", *op.Security, bearerScheme)
	}
	if op.Responses.Value("401") == nil {
		t.Error("expected a 401 response on protected save")
	}

	open := Generate(Options{ProtectNumbers: false})
	op = open.Paths.Find("/numbers/detail_number").Post
	if op.Security != nil {
		t.Errorf("expected no security on unprotected save, got %v", *op.Security)
	}
	if op.Responses.Value("401") != nil {
		t.Error("expected no 401 response on unprotected save")
	}
}

func TestDeleteByIDDocuments404(t *testing.T) {
	doc := Generate(Options{})
	for _, path := range []string{"/users/delete/{id}", "/numbers/delete/{id}"} {
		op := doc.Paths.Find(path).Delete
		if len(op.Parameters) != 1 || op.Parameters[0].Value.In != "path" {
			t.Errorf("%s: expected one path parameter", path)
		}
		if op.Responses.Value("404") == nil {
			t.Errorf("%s: expected a 404 response", path)
		}
		if op.Responses.Value("200") == nil {
			t.Errorf("%s: expected a 200 response", path)
		}
	}
}

func TestGenerateMarshalsJSON(t *testing.T) {
	b, err := json.Marshal(Generate(Options{Version: "v0.3.0"}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["openapi"] != "3.1.0" {
		t.Errorf("openapi = %v, want 3.1.0", raw["openapi"])
	}
	info := raw["info"].(map[string]interface{})
	if info["version"] != "v0.3.0" {
		t.Errorf("info.version = %v, want v0.3.0", info["version"])
	}
}
