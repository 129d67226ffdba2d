package scenario

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
)

// JPEGBytes is the smallest payload carrying a JPEG start and end marker
var JPEGBytes = []byte{0xff, 0xd8, 0xff, 0xd9}

// Environment is a local far end for demo traffic: an echo server plus the
// address of a server that has already shut down, used to provoke faults.
type Environment struct {
	Server   *httptest.Server
	FaultURL string
}

// StartEnvironment starts the echo server
func StartEnvironment() *Environment {
	closed := httptest.NewServer(http.NotFoundHandler())
	faultURL := closed.URL
	closed.Close()

	return &Environment{
		Server:   httptest.NewServer(NewEchoHandler()),
		FaultURL: faultURL,
	}
}

func (e *Environment) URL() string {
	return e.Server.URL
}

func (e *Environment) Close() {
	e.Server.Close()
}

// NewEchoHandler serves the routes the built-in scenarios call
func NewEchoHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /echo", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		} else {
			w.Header()["Content-Type"] = nil
		}
		_, _ = io.Copy(w, r.Body)
	})

	mux.HandleFunc("GET /text", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Hello, this is plain text!")
	})

	mux.HandleFunc("GET /xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, `<?xml version="1.0"?><mataki><type>xml</type></mataki>`)
	})

	mux.HandleFunc("GET /sjis", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=shift_jis")
		_, _ = w.Write([]byte{0x82, 0xa0})
	})

	mux.HandleFunc("GET /image/jpeg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(JPEGBytes)
	})

	mux.HandleFunc("GET /raw", func(w http.ResponseWriter, r *http.Request) {
		// a nil slice stops the server from sniffing a content type
		w.Header()["Content-Type"] = nil
		_, _ = io.WriteString(w, "untyped payload")
	})

	mux.HandleFunc("GET /status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 200 || code > 599 {
			http.Error(w, "invalid status code", http.StatusBadRequest)
			return
		}
		http.Error(w, http.StatusText(code), code)
	})

	return mux
}
