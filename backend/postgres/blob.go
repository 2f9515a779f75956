package postgres

import (
	"context"
	"io/ioutil"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/backend"
)

var errUnsafePath = errors.New("unsafe object path")

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	target, err := c.objectPath(bucket, path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrap(err, "creating object directory")
	}
	return errors.Wrap(ioutil.WriteFile(target, data, 0o644), "writing object")
}

func (c *Client) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	target, err := c.objectPath(bucket, path)
	if err != nil {
		return "", err
	}
	if _, err = os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return "", backend.ErrNotFound
		}
		return "", errors.Wrap(err, "checking object")
	}
	return backend.SignObjectPath(c.secret, c.mediaBase, bucket, path, ttl), nil
}

// Object reads a stored blob back; it backs the signed-media endpoint.
func (c *Client) Object(bucket, path string) (data []byte, contentType string, err error) {
	target, err := c.objectPath(bucket, path)
	if err != nil {
		return nil, "", err
	}
	data, err = ioutil.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", backend.ErrNotFound
		}
		return nil, "", errors.Wrap(err, "reading object")
	}
	return data, mime.TypeByExtension(filepath.Ext(path)), nil
}

func (c *Client) objectPath(bucket, path string) (string, error) {
	if strings.Contains(bucket, "..") || strings.Contains(path, "..") {
		return "", errUnsafePath
	}
	return filepath.Join(c.mediaRoot, bucket, filepath.FromSlash(path)), nil
}
