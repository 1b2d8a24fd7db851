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
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
)

// downloadBackOff returns the retry policy for downloads.
var downloadBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	return backoff.WithMaxRetries(b, 10)
}

// maybeDownload checks if the input is an existing file locally.
// If not, it checks whether the path is a URL or a blob and, if so,
// downloads the file and returns the path to the downloaded copy.
// For shapefiles, the associated files are downloaded as well and the
// path to the file with the ".shp" extension is returned.
// Failed downloads are retried with exponential backoff.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return path, nil
	}
	var download func(context.Context, string, string) error
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		download = downloadHTTP
	case IsBlob(path):
		download = downloadBlob
	default:
		return path, nil
	}

	dir, err := ioutil.TempDir("", "balprep")
	if err != nil {
		return path, fmt.Errorf("balpreputil: creating temporary download directory: %v", err)
	}
	fnames := expandShp(path)
	for _, fname := range fnames {
		local := filepath.Join(dir, filepath.Base(fname))
		var missing error
		err := backoff.RetryNotify(
			func() error {
				err := download(ctx, fname, local)
				if _, ok := err.(notFoundError); ok {
					missing = err
					return nil
				}
				return err
			},
			downloadBackOff(),
			func(err error, d time.Duration) {
				log.WithField("file", fname).Warnf("download failed, retrying in %v: %v", d, err)
			},
		)
		if err == nil {
			err = missing
		}
		if err != nil && filepath.Ext(fname) == ".prj" {
			log.WithField("file", fname).Warn("shapefile has no .prj file")
			continue
		} else if err != nil {
			return path, fmt.Errorf("balpreputil: downloading %s: %v", fname, err)
		}
	}
	log.WithField("file", path).Info("downloaded input")
	return filepath.Join(dir, filepath.Base(fnames[0])), nil
}

// notFoundError is returned for files that the server reports as
// missing. Those downloads are not retried.
type notFoundError string

func (e notFoundError) Error() string { return string(e) + ": 404 Not Found" }

// downloadHTTP downloads the file at u to the local path.
func downloadHTTP(ctx context.Context, u, local string) error {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return notFoundError(u)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", u, resp.Status)
	}
	return writeLocal(local, resp.Body)
}

func writeLocal(local string, r io.Reader) error {
	w, err := os.Create(local)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// The accepted storage providers are "file" for the local filesystem
// (where name is a directory relative to the working directory),
// "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	url, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("balpreputil: opening bucket: %v", err)
	}
	switch url.Scheme {
	case "file":
		return fileblob.NewBucket(url.Host)
	case "gs":
		return gsBucket(ctx, url.Host)
	case "s3":
		return s3Bucket(ctx, url.Host)
	default:
		return nil, fmt.Errorf("balpreputil: invalid blob provider %s", url.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See https://cloud.google.com/docs/authentication/getting-started
	// for information on credentials.
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-north-1"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s, err := session.NewSession(c)
	if err != nil {
		return nil, err
	}
	return s3blob.OpenBucket(ctx, s, name)
}

// blobKey splits a blob path into its bucket name and key.
func blobKey(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	return u.Scheme + "://" + u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// downloadBlob downloads the specified file from blob storage.
func downloadBlob(ctx context.Context, path, local string) error {
	bucketName, key, err := blobKey(path)
	if err != nil {
		return err
	}
	bucket, err := OpenBucket(ctx, bucketName)
	if err != nil {
		return err
	}
	r, err := bucket.NewReader(ctx, key)
	if err != nil {
		return err
	}
	defer r.Close()
	return writeLocal(local, r)
}

// expandShp returns the given file + associated [.dbf, .shx, .prj]
// files if the given file has the .shp extension, and returns the given
// file otherwise
func expandShp(filename string) []string {
	o := []string{filename}
	if filepath.Ext(filename) != ".shp" {
		return o
	}
	for _, newExt := range []string{".dbf", ".shx", ".prj"} {
		o = append(o, filename[0:len(filename)-4]+newExt)
	}
	return o
}
