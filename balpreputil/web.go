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
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"github.com/ctessum/gobra"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

// webAddress is where the configuration web interface is served.
const webAddress = "localhost:7171"

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the configuration web interface.",
	Long:  "web starts a web interface for configuring and running balprep.",
	Run: func(cmd *cobra.Command, args []string) {
		StartWebServer()
	},
	DisableAutoGenTag: true,
}

// webTemplate wraps the command forms generated by gobra. Typing a
// configuration file path reloads the form values from that file.
const webTemplate = `<!DOCTYPE html>
<html>
<head>
	<meta charset="utf-8">
	<title>balprep</title>
	<style>
		body { font-family: sans-serif; max-width: 760px; margin: 2em auto; }
		div[id^="gobra-"] input { font-family: monospace; width: 50%; }
		.invalid { border: 1px solid #c35; }
		.loaded { border: 1px solid #3c5; }
	</style>
</head>
<body>
	<h1>balprep</h1>
	<p>Prepare Balmorel input data: cluster regions, aggregate .inc files,
	and create grid, demand, profile, and biomass inputs. Set a
	configuration file to load its values into the forms.</p>
	{{.}}
<script>
const fields = [...document.querySelectorAll('[data-name]')];
const config = fields.find(f => f.dataset.name == "config").children[0];
config.addEventListener("change", () => {
	fetch("/setConfig?config=" + encodeURIComponent(config.value)).then(res => {
		config.classList.toggle("invalid", !res.ok);
		if (!res.ok) return;
		res.json().then(values => fields.forEach(f => {
			if (!(f.dataset.name in values)) return;
			const v = values[f.dataset.name];
			f.children[0].value = typeof v == "string" ? v : JSON.stringify(v);
			f.children[0].classList.add("loaded");
		}));
	});
});
</script>
</body>
</html>`

// webPage returns the template of the configuration web interface.
func webPage() *template.Template {
	return template.Must(template.New("balprep").Parse(webTemplate))
}

// configHandler reads the configuration file named in the request's
// config parameter and responds with the resulting value of every
// option as JSON.
func configHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	Cfg.Set("config", r.Form.Get("config"))
	if err := setConfig(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	config := make(map[string]interface{})
	for _, option := range options {
		config[option.name] = Cfg.Get(option.name)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(config); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// StartWebServer starts the configuration web interface.
func StartWebServer() {
	setConfig() // Ignore any errors for now.

	http.HandleFunc("/setConfig", configHandler)

	for _, cmd := range []*cobra.Command{Root, versionCmd, clusterCmd, aggregateCmd, connectivityCmd,
		gridsCmd, xkfxCmd, relaxCmd, setsCmd, demandCmd, profilesCmd, biomassCmd} {
		cmd.SilenceUsage = true // We don't want the usage messages in the GUI.
	}

	server := gobra.Server{Root: Root, ServerAddress: webAddress, AllowCORS: false, HTML: webPage()}
	log.Println("Server starting... ")
	open.Run("http://" + webAddress)
	fmt.Println("If not opened automatically, please visit http://" + webAddress)
	server.Start()
}
