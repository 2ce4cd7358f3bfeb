package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGet_HTML(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<h1>Asset Inventory</h1>"))
	}))
	defer srv.Close()

	c := NewClient(Options{UserAgent: "reportgest-test"})
	doc, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Body) != "<h1>Asset Inventory</h1>" {
		t.Errorf("unexpected body %q", doc.Body)
	}
	if gotUA != "reportgest-test" {
		t.Errorf("expected user agent to be sent, got %q", gotUA)
	}
	if !strings.HasPrefix(doc.ContentType, "text/html") {
		t.Errorf("unexpected content type %q", doc.ContentType)
	}
}

func TestGet_DecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=windows-1252")
		w.Write([]byte("<td>caf\xe9</td>"))
	}))
	defer srv.Close()

	doc, err := NewClient(Options{}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Body) != "<td>café</td>" {
		t.Errorf("expected UTF-8 body, got %q", doc.Body)
	}
}

func TestGet_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Options{}).Get(context.Background(), srv.URL)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
}

func TestGet_NotFoundIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(Options{}).Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error")
	}
	var re *RetryableError
	if errors.As(err, &re) {
		t.Errorf("404 must not be retryable: %v", err)
	}
}

func TestGet_ConnectionRefusedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Get(context.Background(), url)
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
}

func TestGet_UnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	_, err := NewClient(Options{}).Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrUnsupportedContent) {
		t.Fatalf("expected ErrUnsupportedContent, got %v", err)
	}
}

func TestGet_Markdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Incident Log\n"))
	}))
	defer srv.Close()

	doc, err := NewClient(Options{}).Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(doc.Body) != "# Incident Log\n" {
		t.Errorf("unexpected body %q", doc.Body)
	}
}

func TestGet_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	_, err := NewClient(Options{MaxBytes: 10}).Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestGet_SizeCapCountsWireBytes(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		maxBytes    int64
		want        string
		wantErr     bool
	}{
		{
			name:        "utf-16 over cap",
			contentType: "text/html; charset=utf-16le",
			body:        utf16le(strings.Repeat("a", 100)),
			maxBytes:    150,
			wantErr:     true,
		},
		{
			name:        "utf-16 at cap",
			contentType: "text/html; charset=utf-16le",
			body:        utf16le(strings.Repeat("a", 75)),
			maxBytes:    150,
			want:        strings.Repeat("a", 75),
		},
		{
			name:        "latin-1 at cap grows when decoded",
			contentType: "text/html; charset=iso-8859-1",
			body:        []byte("caf\xe9 12345"),
			maxBytes:    10,
			want:        "caf\u00e9 12345",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Write(tt.body)
			}))
			defer srv.Close()

			doc, err := NewClient(Options{MaxBytes: tt.maxBytes}).Get(context.Background(), srv.URL)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "exceeds") {
					t.Fatalf("expected size error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(doc.Body) != tt.want {
				t.Errorf("body %q, want %q", doc.Body, tt.want)
			}
		})
	}
}

func utf16le(s string) []byte {
	out := make([]byte, 0, 2*len(s))
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestGet_RejectsNonHTTPScheme(t *testing.T) {
	_, err := NewClient(Options{}).Get(context.Background(), "file:///etc/passwd")
	if err == nil || !strings.Contains(err.Error(), "unsupported URL scheme") {
		t.Fatalf("expected scheme error, got %v", err)
	}
}

func TestGet_RedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/again", http.StatusFound)
	}))
	defer srv.Close()

	_, err := NewClient(Options{MaxRedirects: 2}).Get(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "too many redirects") {
		t.Fatalf("expected redirect error, got %v", err)
	}
}

func TestGet_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(Options{}).Get(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
