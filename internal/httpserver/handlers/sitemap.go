package handlers

import (
	"encoding/xml"
	"net/http"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
)

// sitemapPaths are the public entry points of the application.
var sitemapPaths = []struct {
	path     string
	freq     string
	priority string
}{
	{"/", "monthly", "1.0"},
	{"/link", "daily", "0.8"},
	{"/docs", "daily", "0.8"},
	{"/docs/new", "monthly", "0.5"},
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

func Sitemap(d deps.Deps) http.HandlerFunc {
	set := urlset{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range sitemapPaths {
		set.URLs = append(set.URLs, sitemapURL{Loc: d.PublicURL + p.path, ChangeFreq: p.freq, Priority: p.priority})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		panic(err)
	}
	body = append([]byte(xml.Header), body...)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write(body)
	}
}
