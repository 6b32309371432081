// Package openapi builds the OpenAPI 3.1 document describing the numberdesk
// HTTP surface.
package openapi

import (
	"net/http"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	tagUsers   = "users"
	tagNumbers = "numbers"
	tagAuth    = "auth"
	tagSystem  = "system"

	bearerScheme = "bearerAuth"
)

// Options controls route details that depend on configuration.
type Options struct {
	// BaseURL is listed as the only server. Empty omits the servers block.
	BaseURL string
	// ProtectNumbers marks POST /numbers/detail_number as requiring a
	// bearer credential.
	ProtectNumbers bool
	// Version is reported in info.version.
	Version string
}

// Generate builds the document for every numberdesk route.
func Generate(opts Options) *openapi3.T {
	version := opts.Version
	if version == "" {
		version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "numberdesk API",
			Description: "User registration and phone number storage.",
			Version:     version,
		},
		Tags: openapi3.Tags{
			{Name: tagUsers, Description: "User operations"},
			{Name: tagNumbers, Description: "Phone number operations"},
			{Name: tagAuth, Description: "Authentication"},
			{Name: tagSystem, Description: "Service health"},
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes[bearerScheme] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:        "http",
			Scheme:      "bearer",
			Description: "Session token from POST /auth/login, or the signed legacy credential.",
		},
	}

	addSchemas(doc.Components.Schemas)

	doc.Paths = openapi3.NewPaths()
	addUserPaths(doc)
	addNumberPaths(doc, opts.ProtectNumbers)
	addAuthPaths(doc)
	addSystemPaths(doc)

	return doc
}

// ─── Component Schemas ──────────────────────────────────────────────────────

func addSchemas(s openapi3.Schemas) {
	s["ErrorResponse"] = objectSchema(openapi3.Schemas{
		"error": objectSchema(openapi3.Schemas{
			"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
			"message": stringSchema(),
		}, "code", "message"),
	}, "error")

	s["User"] = columnsToSchema(userColumns)
	s["PhoneNumber"] = columnsToSchema(numberColumns)

	s["RegisterUserRequest"] = objectSchema(openapi3.Schemas{
		"name":    stringSchema(),
		"company": stringSchema(),
		"email":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "email"}},
		"phone":   stringSchema(),
	}, "name")
	s["RegisterResponse"] = objectSchema(openapi3.Schemas{
		"message": stringSchema(),
		"user_id": int64Schema(),
	}, "message", "user_id")

	s["SaveNumberRequest"] = objectSchema(openapi3.Schemas{
		"details_number": stringSchema(),
	}, "details_number")
	s["NumberResponse"] = objectSchema(openapi3.Schemas{
		"message":   stringSchema(),
		"number_id": int64Schema(),
	}, "message", "number_id")

	s["MessageResponse"] = objectSchema(openapi3.Schemas{
		"message": stringSchema(),
	}, "message")
	s["DeleteAllResponse"] = objectSchema(openapi3.Schemas{
		"message":       stringSchema(),
		"deleted_count": int64Schema(),
	}, "message", "deleted_count")

	s["CredentialLogin"] = objectSchema(openapi3.Schemas{
		"username": stringSchema(),
		"password": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "password"}},
	}, "username", "password")
	s["LegacyLogin"] = objectSchema(openapi3.Schemas{
		"name":  stringSchema(),
		"email": stringSchema(),
		"phone": stringSchema(),
	}, "name", "email", "phone")
	s["LoginResponse"] = objectSchema(openapi3.Schemas{
		"message":    stringSchema(),
		"token":      stringSchema(),
		"token_type": stringSchema(),
		"expires_in": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32", Description: "Token lifetime in seconds."}},
	}, "message", "token", "token_type", "expires_in")
	s["LegacyLoginResponse"] = objectSchema(openapi3.Schemas{
		"access_token": stringSchema(),
	}, "access_token")

	s["HealthResponse"] = objectSchema(openapi3.Schemas{
		"status": stringSchema(),
		"database": objectSchema(openapi3.Schemas{
			"path":   stringSchema(),
			"exists": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			"size":   int64Schema(),
		}, "path", "exists", "size"),
		"counts": objectSchema(openapi3.Schemas{
			"users":   int64Schema(),
			"numbers": int64Schema(),
			"admins":  int64Schema(),
		}, "users", "numbers", "admins"),
		"endpoints": &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type: &openapi3.Types{"array"},
			Items: objectSchema(openapi3.Schemas{
				"method":      stringSchema(),
				"path":        stringSchema(),
				"description": stringSchema(),
				"protected":   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}},
			}, "method", "path", "description"),
		}},
	}, "status", "database", "counts", "endpoints")
}

// columnsToSchema converts resource columns to an object schema. Every
// column is always present in responses, so all are required.
func columnsToSchema(columns []column) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	required := make([]string, 0, len(columns))
	for _, col := range columns {
		m := MapColumnType(col.Type)
		s := &openapi3.Schema{Type: &openapi3.Types{m.Type}, Format: m.Format}
		s.Description = col.Description
		if col.Nullable {
			s.Nullable = true
		}
		if col.ReadOnly {
			s.ReadOnly = true
		}
		props[col.Name] = &openapi3.SchemaRef{Value: s}
		required = append(required, col.Name)
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: props,
			Required:   required,
		},
	}
}

// ─── Paths ──────────────────────────────────────────────────────────────────

func addUserPaths(doc *openapi3.T) {
	doc.Paths.Set("/users/register", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{tagUsers},
			Summary:     "Register a user",
			Description: "Name is required, plus at least one of email or phone. Blank optional fields are stored as null.",
			OperationID: "registerUser",
			RequestBody: jsonBody("RegisterUserRequest"),
			Responses:   newResponses(http.StatusCreated, "User registered", ref("RegisterResponse"), 400, 500),
		},
	})
	doc.Paths.Set("/users/all", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagUsers},
			Summary:     "List all users",
			Description: "Newest first.",
			OperationID: "listUsers",
			Responses:   newResponses(http.StatusOK, "All users", arrayOf("User"), 500),
		},
	})
	doc.Paths.Set("/users/delete_all", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{tagUsers},
			Summary:     "Delete all users",
			OperationID: "deleteAllUsers",
			Responses:   newResponses(http.StatusOK, "Users deleted", ref("DeleteAllResponse"), 500),
		},
	})
	doc.Paths.Set("/users/delete/{id}", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{tagUsers},
			Summary:     "Delete a user by id",
			OperationID: "deleteUser",
			Parameters:  openapi3.Parameters{idParameter()},
			Responses:   newResponses(http.StatusOK, "User deleted", ref("MessageResponse"), 404, 500),
		},
	})
}

func addNumberPaths(doc *openapi3.T, protect bool) {
	errs := []int{400, 500}
	if protect {
		errs = []int{400, 401, 500}
	}
	save := &openapi3.Operation{
		Tags:        []string{tagNumbers},
		Summary:     "Save a phone number",
		OperationID: "saveNumber",
		RequestBody: jsonBody("SaveNumberRequest"),
		Responses:   newResponses(http.StatusCreated, "Phone number saved", ref("NumberResponse"), errs...),
	}
	if protect {
		save.Security = &openapi3.SecurityRequirements{{bearerScheme: []string{}}}
	}
	doc.Paths.Set("/numbers/detail_number", &openapi3.PathItem{Post: save})

	doc.Paths.Set("/numbers/all", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagNumbers},
			Summary:     "List all phone numbers",
			Description: "Newest first.",
			OperationID: "listNumbers",
			Responses:   newResponses(http.StatusOK, "All phone numbers", arrayOf("PhoneNumber"), 500),
		},
	})
	doc.Paths.Set("/numbers/delete_all", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{tagNumbers},
			Summary:     "Delete all phone numbers",
			OperationID: "deleteAllNumbers",
			Responses:   newResponses(http.StatusOK, "Phone numbers deleted", ref("DeleteAllResponse"), 500),
		},
	})
	doc.Paths.Set("/numbers/delete/{id}", &openapi3.PathItem{
		Delete: &openapi3.Operation{
			Tags:        []string{tagNumbers},
			Summary:     "Delete a phone number by id",
			OperationID: "deleteNumber",
			Parameters:  openapi3.Parameters{idParameter()},
			Responses:   newResponses(http.StatusOK, "Phone number deleted", ref("MessageResponse"), 404, 500),
		},
	})
}

func addAuthPaths(doc *openapi3.T) {
	loginBody := &openapi3.SchemaRef{Value: &openapi3.Schema{
		OneOf: openapi3.SchemaRefs{ref("CredentialLogin"), ref("LegacyLogin")},
	}}
	loginResult := &openapi3.SchemaRef{Value: &openapi3.Schema{
		OneOf: openapi3.SchemaRefs{ref("LoginResponse"), ref("LegacyLoginResponse")},
	}}

	doc.Paths.Set("/auth/login", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:    []string{tagAuth},
			Summary: "Log in",
			Description: "A body with username/password returns a session token. A body with " +
				"name/email/phone is matched against the configured legacy identity and returns a signed credential.",
			OperationID: "login",
			RequestBody: &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
				Required: true,
				Content:  openapi3.NewContentWithJSONSchemaRef(loginBody),
			}},
			Responses: newResponses(http.StatusOK, "Logged in", loginResult, 400, 401, 500),
		},
	})
	doc.Paths.Set("/auth/logout", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{tagAuth},
			Summary:     "Log out",
			Description: "Forgets the presented session token. Unknown tokens are ignored.",
			OperationID: "logout",
			Security:    &openapi3.SecurityRequirements{{bearerScheme: []string{}}},
			Responses:   newResponses(http.StatusOK, "Logged out", ref("MessageResponse"), 500),
		},
	})
}

func addSystemPaths(doc *openapi3.T) {
	doc.Paths.Set("/health", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagSystem},
			Summary:     "Service health",
			OperationID: "health",
			Responses:   newResponses(http.StatusOK, "Service is up", ref("HealthResponse"), 500),
		},
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

var errorDescriptions = map[int]string{
	400: "Bad request",
	401: "Unauthorized",
	404: "Not found",
	500: "Internal server error",
}

// newResponses builds a Responses map with a success response and the listed
// error responses, all sharing the ErrorResponse envelope.
func newResponses(status int, description string, schema *openapi3.SchemaRef, errorCodes ...int) *openapi3.Responses {
	responses := openapi3.NewResponses(openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithContent(openapi3.NewContentWithJSONSchemaRef(schema)),
	}))

	errorRef := ref("ErrorResponse")
	for _, code := range errorCodes {
		responses.Set(strconv.Itoa(code), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(errorDescriptions[code]).
				WithContent(openapi3.NewContentWithJSONSchemaRef(errorRef)),
		})
	}
	return responses
}

func jsonBody(schemaName string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{Value: &openapi3.RequestBody{
		Required: true,
		Content:  openapi3.NewContentWithJSONSchemaRef(ref(schemaName)),
	}}
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: openapi3.NewPathParameter("id").
			WithDescription("Record id. Non-integer values are answered with 404.").
			WithSchema(openapi3.NewInt64Schema()),
	}
}

func ref(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func arrayOf(name string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: ref(name),
	}}
}

func objectSchema(props openapi3.Schemas, required ...string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: props,
		Required:   required,
	}}
}

func stringSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: openapi3.NewStringSchema()}
}

func int64Schema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}
}
