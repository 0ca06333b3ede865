package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/bookservice"
	"github.com/starford/laguz/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	db := testutil.TestDB(t)
	svc := bookservice.NewService(db, nil)
	owner := testutil.TestUser(t, db, "alice")
	return New(svc, owner.ID)
}

// call invokes a tool handler directly; mcp-go has no test dispatcher.
func call(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	switch name {
	case "list_log_books":
		result, err = srv.listLogBooks(ctx, req)
	case "read_log_book":
		result, err = srv.readLogBook(ctx, req)
	case "create_log_book":
		result, err = srv.createLogBook(ctx, req)
	case "add_entry":
		result, err = srv.addEntry(ctx, req)
	case "get_entry_contract":
		result, err = srv.getEntryContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestCreateAndListLogBooks(t *testing.T) {
	srv := testServer(t)

	r := call(t, srv, "create_log_book", map[string]interface{}{
		"title": "Trip Notes",
	})
	if text := resultText(r); text != "created: trip-notes" {
		t.Errorf("create result = %q", text)
	}

	r = call(t, srv, "list_log_books", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "trip-notes\tTrip Notes") {
		t.Errorf("list result = %q", text)
	}
}

func TestListLogBooksEmpty(t *testing.T) {
	srv := testServer(t)
	r := call(t, srv, "list_log_books", map[string]interface{}{})
	if text := resultText(r); text != "no log books" {
		t.Errorf("list result = %q", text)
	}
}

func TestAddEntryAndReadBack(t *testing.T) {
	srv := testServer(t)
	call(t, srv, "create_log_book", map[string]interface{}{"title": "Runs"})

	r := call(t, srv, "add_entry", map[string]interface{}{
		"slug":   "runs",
		"kind":   "number",
		"number": 5.2,
	})
	if r.IsError {
		t.Fatalf("add_entry failed: %q", resultText(r))
	}
	if !strings.HasPrefix(resultText(r), "added entry ") {
		t.Errorf("add result = %q", resultText(r))
	}

	r = call(t, srv, "add_entry", map[string]interface{}{
		"slug":         "runs",
		"kind":         "number_array",
		"number_array": "5.2, 4.8\n6.1",
	})
	if r.IsError {
		t.Fatalf("array add_entry failed: %q", resultText(r))
	}

	r = call(t, srv, "read_log_book", map[string]interface{}{"slug": "runs"})
	text := resultText(r)
	if !strings.Contains(text, `"slug": "runs"`) || !strings.Contains(text, "number_array") {
		t.Errorf("read result = %q", text)
	}
}

func TestAddEntryBadPayload(t *testing.T) {
	srv := testServer(t)
	call(t, srv, "create_log_book", map[string]interface{}{"title": "Runs"})

	r := call(t, srv, "add_entry", map[string]interface{}{
		"slug":         "runs",
		"kind":         "number_array",
		"number_array": "1, abc",
	})
	if !r.IsError {
		t.Error("bad array should fail")
	}
	if !strings.Contains(resultText(r), "abc") {
		t.Errorf("error should name the bad item: %q", resultText(r))
	}

	r = call(t, srv, "add_entry", map[string]interface{}{
		"slug": "runs",
		"kind": "number",
	})
	if !r.IsError {
		t.Error("number without value should fail")
	}
}

func TestReadMissingLogBook(t *testing.T) {
	srv := testServer(t)
	r := call(t, srv, "read_log_book", map[string]interface{}{"slug": "nope"})
	if !r.IsError {
		t.Error("expected error result")
	}
	if !strings.Contains(resultText(r), "not found") {
		t.Errorf("error = %q", resultText(r))
	}
}

func TestGetEntryContract(t *testing.T) {
	srv := testServer(t)
	r := call(t, srv, "get_entry_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "number_array") || !strings.Contains(text, "short_text") {
		t.Errorf("contract = %q", text)
	}
}

func TestReadEntryFormatResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readEntryFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != "laguz://entry-format" {
		t.Errorf("contents = %+v", contents[0])
	}
}
