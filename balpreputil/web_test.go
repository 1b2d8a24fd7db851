/*
Copyright © 2025 the balprep authors.
This file is part of balprep.

balprep is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

balprep is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with balprep.  If not, see <http://www.gnu.org/licenses/>.
*/


package balpreputil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigHandler(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, filepath.Join(dir, "config.toml"), `
[profiles]
text = "Wind from the web"
`)
	defer Cfg.Set("config", "")

	w := httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("GET", "/setConfig?config="+cfg, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var values map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &values); err != nil {
		t.Fatal(err)
	}
	if have, want := values["profiles.text"], "Wind from the web"; have != want {
		t.Errorf("profiles.text: have %v, want %v", have, want)
	}
	if have := values["config"]; have != cfg {
		t.Errorf("config: have %v, want %v", have, cfg)
	}

	w = httptest.NewRecorder()
	configHandler(w, httptest.NewRequest("GET", "/setConfig?config="+filepath.Join(dir, "missing.toml"), nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file: status %d", w.Code)
	}
}

func TestWebPage(t *testing.T) {
	b := new(bytes.Buffer)
	if err := webPage().Execute(b, "FORMS"); err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"<title>balprep</title>", "FORMS", `fetch("/setConfig?config="`} {
		if !strings.Contains(b.String(), s) {
			t.Errorf("page does not contain %q", s)
		}
	}
}
