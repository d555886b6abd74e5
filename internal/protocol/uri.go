package protocol

import (
	"net/url"
	"path/filepath"
	"runtime"
)

// FilePathToURI converts a file path to a DocumentURI.
func FilePathToURI(path string) DocumentURI {
	if path == "" {
		return ""
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	path = filepath.ToSlash(path)

	// On Windows, add extra slash for drive letter
	if runtime.GOOS == "windows" && len(path) >= 2 && path[1] == ':' {
		path = "/" + path
	}

	u := &url.URL{
		Scheme: "file",
		Path:   path,
	}

	return DocumentURI(u.String())
}

// URIToFilePath converts a DocumentURI to a file path.
// Non-file URIs are returned unchanged.
func URIToFilePath(uri DocumentURI) string {
	if uri == "" {
		return ""
	}

	u, err := url.Parse(string(uri))
	if err != nil {
		return string(uri)
	}

	if u.Scheme != "file" {
		return string(uri)
	}

	path := u.Path

	// On Windows, remove leading slash before drive letter
	if runtime.GOOS == "windows" && len(path) >= 3 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}

	return filepath.FromSlash(path)
}
