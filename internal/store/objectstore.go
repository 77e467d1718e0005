/**
 * Object store client: downloads the original PDF a job references.
 * This worker only ever reads objects; it never writes or deletes them.
 */

package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ObjectStoreClient fetches objects by bucket and key with a plain HTTP
// GET on <endpoint>/<bucket>/<key>, authenticated by HTTP basic auth
// (access key, secret key) and an X-Account-ID header. Requests are not
// S3-signed.
type ObjectStoreClient struct {
	endpoint   string
	accountID  string
	accessKey  string
	secretKey  string
	httpClient *http.Client
}

// NewObjectStoreClient constructs a client against the given endpoint and
// credentials.
func NewObjectStoreClient(endpoint, accountID, accessKey, secretKey string) *ObjectStoreClient {
	return &ObjectStoreClient{
		endpoint:  endpoint,
		accountID: accountID,
		accessKey: accessKey,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// GetObject retrieves the object at bucket/key.
func (c *ObjectStoreClient) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s", c.endpoint, bucket, key)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s/%s: %w", bucket, key, err)
	}
	req.SetBasicAuth(c.accessKey, c.secretKey)
	if c.accountID != "" {
		req.Header.Set("X-Account-ID", c.accountID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch object %s/%s: %w", bucket, key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, key, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("object store returned status %d for %s/%s: %s", resp.StatusCode, bucket, key, string(body))
	}

	return body, nil
}
