package web

import "embed"

// Templates holds the layout, the map and history pages, and their partials
//
//go:embed templates/*.html templates/partials/*.html
var Templates embed.FS

// Static holds the stylesheet and the polling script served under /static/
//
//go:embed static/css/*.css static/js/*.js
var Static embed.FS
