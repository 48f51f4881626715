// Package assets embeds the client JavaScript and CSS
package assets

import (
	"embed"
	"io/fs"
)

// Asset names as served under /assets/.
const (
	ClientJSName  = "site-client.js"
	ClientCSSName = "site.css"
)

//go:embed client/*
var clientFS embed.FS

// ClientFS returns the embedded client files
func ClientFS() fs.FS {
	sub, err := fs.Sub(clientFS, "client")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetClientJS returns the browser JavaScript
func GetClientJS() ([]byte, error) {
	return clientFS.ReadFile("client/" + ClientJSName)
}

// GetClientCSS returns the site stylesheet
func GetClientCSS() ([]byte, error) {
	return clientFS.ReadFile("client/" + ClientCSSName)
}

// ContentType returns the Content-Type for an asset name, or "" when the
// name is not a known asset.
func ContentType(name string) string {
	switch name {
	case ClientJSName:
		return "application/javascript"
	case ClientCSSName:
		return "text/css; charset=utf-8"
	}
	return ""
}
