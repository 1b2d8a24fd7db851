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
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"

	"github.com/google/go-cloud/blob"
)

type uploader struct {
	// dirs is a set of directory pairs. Every file in the local
	// directory is uploaded under the blob storage prefix.
	dirs [][2]string

	err error
	dir string
}

func (u *uploader) tempDir() string {
	if u.dir == "" {
		u.dir, u.err = ioutil.TempDir("", "balprep")
	}
	return u.dir
}

// maybeUploadDir checks whether the given output directory refers to
// a blob storage location. If it does, then a temporary directory is
// returned whose files will be uploaded under that location when the
// uploadOutput method is run. Local directories are created if they do
// not exist.
func (u *uploader) maybeUploadDir(p string) string {
	if u.err != nil {
		return ""
	}
	if !IsBlob(p) {
		if u.err = os.MkdirAll(p, 0755); u.err != nil {
			return ""
		}
		return p
	}
	dir := u.tempDir()
	if u.err != nil {
		return ""
	}
	local := filepath.Join(dir, fmt.Sprintf("out%d", len(u.dirs)))
	if u.err = os.Mkdir(local, 0755); u.err != nil {
		return ""
	}
	u.dirs = append(u.dirs, [2]string{local, p})
	return local
}

// uploadOutput uploads the files in the registered directories to
// blob storage.
func (u *uploader) uploadOutput(ctx context.Context) error {
	if u.err != nil {
		return u.err
	}
	var files [][2]string
	for _, d := range u.dirs {
		entries, err := ioutil.ReadDir(d[0])
		if err != nil {
			return fmt.Errorf("balpreputil: reading output directory for upload: %v", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			files = append(files, [2]string{filepath.Join(d[0], e.Name()), path.Join(d[1], e.Name())})
		}
	}
	for _, f := range files {
		if err := uploadFile(ctx, f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func uploadFile(ctx context.Context, local, dst string) error {
	r, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("balpreputil: opening file '%s' for upload: %v", local, err)
	}
	defer r.Close()
	bucketName, key, err := blobKey(dst)
	if err != nil {
		return fmt.Errorf("balpreputil: parsing url '%s' for upload: %v", dst, err)
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return fmt.Errorf("balpreputil: opening bucket to upload file '%s': %v", dst, err)
	}
	w, err := bucket.NewWriter(ctx, key, &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("balpreputil: opening writer to upload file '%s': %v", dst, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("balpreputil: uploading file '%s' to '%s': %v", local, dst, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("balpreputil: uploading file '%s' to '%s': %v", local, dst, err)
	}
	return nil
}
