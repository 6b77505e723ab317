// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fetch reads a file from a local path or from any source supported by
// Hashicorp's go-getter, e.g. "git::https://example.com/repo.git//args.txt?ref=main".
package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter/v2"
	"github.com/spf13/afero"
)

// ErrFetch is returned when the source could not be retrieved.
var ErrFetch = errors.New("could not fetch file")

// FsFactory returns the filesystem local paths are read from. It is replaced in tests.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}

const (
	goGetterPathSeparator = "//"
	goGetterRefSeparator  = "?"
	minimumGetterParts    = 3 // scheme, host, and path
)

// Get returns the contents of src. Local paths are read from FsFactory, anything
// else is downloaded with go-getter into a temporary directory.
func Get(ctx context.Context, src string) ([]byte, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty source", ErrFetch)
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	req := &getter.Request{
		Src:     src,
		Pwd:     wd,
		GetMode: getter.ModeDir,
	}

	// Remote sources are fetched as a directory and the file read from there.
	// https://github.com/hashicorp/go-getter/issues/98
	local, err := getter.Detect(req, &getter.FileGetter{})
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	if local {
		b, err := afero.ReadFile(FsFactory(), src)
		if err != nil {
			return nil, errors.Join(ErrFetch, err)
		}

		return b, nil
	}

	return getURL(ctx, src, wd)
}

// getURL downloads url. A "//" subdirectory separator selects a file inside a fetched
// directory, e.g. a repository. A URL without one is fetched as the file itself.
func getURL(ctx context.Context, url, wd string) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "fanout-getter-*")
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	defer os.RemoveAll(tmpDir) //nolint:errcheck

	req := &getter.Request{
		Src:     url,
		Dst:     filepath.Join(tmpDir, "file"),
		Pwd:     wd,
		GetMode: getter.ModeFile,
	}

	var fileName string

	if strings.Count(url, goGetterPathSeparator) >= minimumGetterParts-1 {
		var newURL string

		newURL, fileName = splitFileNameFromGetterURL(url)
		if newURL == "" || fileName == "" {
			return nil, fmt.Errorf("%w: invalid URL format: %s", ErrFetch, url)
		}

		req.Src = newURL
		req.Dst = filepath.Join(tmpDir, "g")
		req.GetMode = getter.ModeDir
	}

	cli := getter.Client{
		DisableSymlinks: true,
	}

	res, err := cli.Get(ctx, req)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	path := res.Dst
	if fileName != "" {
		path = filepath.Join(res.Dst, fileName)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFetch, err)
	}

	return b, nil
}

// splitFileNameFromGetterURL returns the getter URL of the directory holding the file,
// with any query kept, and the file name.
func splitFileNameFromGetterURL(url string) (string, string) {
	var ref string

	parts := strings.Split(url, goGetterPathSeparator)
	if len(parts) < minimumGetterParts {
		return "", ""
	}

	last := parts[len(parts)-1]
	if before, after, ok := strings.Cut(last, goGetterRefSeparator); ok {
		ref = after
		last = before
	}

	if filepath.Clean(last) == filepath.Dir(last) {
		return "", ""
	}

	fileName := filepath.Base(last)
	parts[len(parts)-1] = filepath.Dir(last)

	if parts[len(parts)-1] == "." {
		parts = parts[:len(parts)-1]
	}

	newURL := strings.Join(parts, goGetterPathSeparator)

	if ref != "" {
		newURL += goGetterRefSeparator + ref
	}

	return newURL, fileName
}
