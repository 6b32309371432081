package mcp

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/numberdesk/numberdesk/internal/service"
	"github.com/numberdesk/numberdesk/internal/store"
)

// registerTools registers all numberdesk MCP tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	// ----- Read tools -----

	srv.AddTool(
		mcp.NewTool("numberdesk_list_users",
			mcp.WithDescription(
				"List every registered user, newest first. Each user has an id, name, "+
					"and optional company, email and phone (null when not given).",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListUsers,
	)

	srv.AddTool(
		mcp.NewTool("numberdesk_list_numbers",
			mcp.WithDescription(
				"List every saved phone number record, newest first. Phone number "+
					"records are standalone and not linked to users.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListNumbers,
	)

	srv.AddTool(
		mcp.NewTool("numberdesk_stats",
			mcp.WithDescription("Return the number of users, phone numbers and admin accounts stored."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleStats,
	)

	// ----- Write tools -----

	srv.AddTool(
		mcp.NewTool("numberdesk_register_user",
			mcp.WithDescription(
				"Register a user. A name is required, and at least one of email or "+
					"phone must be given. Phone numbers need at least 7 digits and may "+
					"contain spaces, dashes, parentheses and '+' signs. Dots are not accepted.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation(false)),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Full name of the user"),
			),
			mcp.WithString("company",
				mcp.Description("Company the user works for"),
			),
			mcp.WithString("email",
				mcp.Description("Email address (e.g. \"ann@example.com\")"),
			),
			mcp.WithString("phone",
				mcp.Description("Phone number (e.g. \"+1 (555) 123-4567\")"),
			),
		),
		s.handleRegisterUser,
	)

	srv.AddTool(
		mcp.NewTool("numberdesk_save_number",
			mcp.WithDescription("Save a standalone phone number record."),
			mcp.WithToolAnnotation(mutatingAnnotation(false)),
			mcp.WithString("details_number",
				mcp.Required(),
				mcp.Description("Phone number to save (at least 7 digits)"),
			),
		),
		s.handleSaveNumber,
	)

	srv.AddTool(
		mcp.NewTool("numberdesk_delete_user",
			mcp.WithDescription("Delete one user by id. Fails if no user has that id."),
			mcp.WithToolAnnotation(mutatingAnnotation(true)),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Id of the user to delete"),
			),
		),
		s.handleDeleteUser,
	)

	srv.AddTool(
		mcp.NewTool("numberdesk_delete_number",
			mcp.WithDescription("Delete one phone number record by id. Fails if no record has that id."),
			mcp.WithToolAnnotation(mutatingAnnotation(true)),
			mcp.WithNumber("id",
				mcp.Required(),
				mcp.Description("Id of the phone number record to delete"),
			),
		),
		s.handleDeleteNumber,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleListUsers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	users, err := s.dir.ListUsers(ctx)
	if err != nil {
		return s.internalError("list users", err)
	}
	return successJSON(users)
}

func (s *MCPServer) handleListNumbers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	numbers, err := s.dir.ListNumbers(ctx)
	if err != nil {
		return s.internalError("list numbers", err)
	}
	return successJSON(numbers)
}

func (s *MCPServer) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.dir.Stats(ctx)
	if err != nil {
		return s.internalError("stats", err)
	}
	return successJSON(counts)
}

// handleRegisterUser runs the same validation as POST /users/register and
// reports validation failures back to the model so it can correct them.
func (s *MCPServer) handleRegisterUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.dir.RegisterUser(ctx, service.RegisterUserInput{
		Name:    optionalString(request, "name"),
		Company: optionalString(request, "company"),
		Email:   optionalString(request, "email"),
		Phone:   optionalString(request, "phone"),
	})
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return toolError("%s (field %q)", verr.Message, verr.Field)
		}
		return s.internalError("register user", err)
	}
	return successJSON(map[string]interface{}{
		"message": "Registration successful!",
		"user_id": id,
	})
}

func (s *MCPServer) handleSaveNumber(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.dir.SaveNumber(ctx, optionalString(request, "details_number"))
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return toolError("%s", verr.Message)
		}
		return s.internalError("save number", err)
	}
	return successJSON(map[string]interface{}{
		"message":   "Phone number saved successfully!",
		"number_id": id,
	})
}

func (s *MCPServer) handleDeleteUser(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	if err := s.dir.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("User %d not found. Use numberdesk_list_users to see existing ids.", id)
		}
		return s.internalError("delete user", err)
	}
	return successJSON(map[string]string{"message": "User deleted successfully!"})
}

func (s *MCPServer) handleDeleteNumber(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(request)
	if err != nil {
		return toolError("%v", err)
	}
	if err := s.dir.DeleteNumber(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return toolError("Phone number %d not found. Use numberdesk_list_numbers to see existing ids.", id)
		}
		return s.internalError("delete number", err)
	}
	return successJSON(map[string]string{"message": "Phone number deleted successfully!"})
}

// internalError logs err and hides its text from the client.
func (s *MCPServer) internalError(op string, err error) (*mcp.CallToolResult, error) {
	s.logger.Error("mcp "+op+" failed", "error", err)
	return toolError("An unexpected error occurred")
}
