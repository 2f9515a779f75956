package inmem

import (
	"context"
	"time"

	"github.com/trezcool/elimu/backend"
)

func (c *Client) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, ok := c.blobs[bucket]
	if !ok {
		b = make(map[string]*object)
		c.blobs[bucket] = b
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	b[path] = &object{data: cp, contentType: contentType}
	return nil
}

func (c *Client) SignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if _, ok := c.blobs[bucket][path]; !ok {
		return "", backend.ErrNotFound
	}
	return backend.SignObjectPath(c.secret, c.mediaBase, bucket, path, ttl), nil
}

// Object returns a stored blob; it backs the signed-media endpoint in demo mode.
func (c *Client) Object(bucket, path string) (data []byte, contentType string, err error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	obj, ok := c.blobs[bucket][path]
	if !ok {
		return nil, "", backend.ErrNotFound
	}
	cp := make([]byte, len(obj.data))
	copy(cp, obj.data)
	return cp, obj.contentType, nil
}
