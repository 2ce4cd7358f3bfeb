package pathstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPutNode(t *testing.T) {
	var gotPath, gotAuth, gotCT string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "ps-key")
	err := c.PutNode(context.Background(), "reports/weekly scan", NodeRequest{
		Value:  map[string]string{"a": "b"},
		Source: "reportgest",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/kv/reports/weekly%20scan" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer ps-key" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotCT != "application/json" {
		t.Errorf("unexpected content type %q", gotCT)
	}
	if gotBody["source"] != "reportgest" {
		t.Errorf("expected source in body, got %v", gotBody)
	}
	if _, ok := gotBody["merge_mode"]; ok {
		t.Errorf("expected empty merge_mode to be omitted")
	}
}

func TestPutNode_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInsufficientStorage)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "k").PutNode(context.Background(), "reports/x", NodeRequest{Value: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "507") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

func TestGetNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/kv/reports/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"key_path":"reports.abc","value":{"Incident Log":{}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	node, err := c.GetNode(context.Background(), "reports/abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node == nil || node.Key != "reports.abc" {
		t.Fatalf("unexpected node %+v", node)
	}
	if string(node.Value) != `{"Incident Log":{}}` {
		t.Errorf("unexpected value %s", node.Value)
	}

	missing, err := c.GetNode(context.Background(), "reports/missing")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing node, got %v, %v", missing, err)
	}
}
