package scene

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebProvider(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		switch r.URL.Path {
		case "/scenes/startup.txt":
			w.Write([]byte("from the web"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p, err := NewWebProvider(srv.URL+"/scenes/", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	text, err := p.LoadScene("Startup")
	if err != nil {
		t.Fatalf("LoadScene returned error: %v", err)
	}
	if text != "from the web" {
		t.Errorf("LoadScene = %q", text)
	}

	if !p.HasScene("startup") {
		t.Error("HasScene(startup) = false")
	}
	if p.HasScene("missing") {
		t.Error("HasScene(missing) = true")
	}
	if _, err := p.LoadScene("missing"); err == nil {
		t.Error("LoadScene(missing) did not fail")
	}

	names, err := p.ListScenes()
	if err != nil || names != nil {
		t.Errorf("ListScenes = %v, %v; want empty", names, err)
	}
	if hits == 0 {
		t.Error("server never hit")
	}
}
