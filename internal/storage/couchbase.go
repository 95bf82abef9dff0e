package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"
)

const couchbaseKeyPrefix = "fasten::"

// CouchbaseOptions configures a CouchbaseStore
type CouchbaseOptions struct {
	URL            string
	Username       string
	Password       string
	Bucket         string
	ConnectTimeout time.Duration
}

// CouchbaseStore keeps values as small documents in a Couchbase bucket, so
// several clients can share preferences
type CouchbaseStore struct {
	cluster    *gocb.Cluster
	collection *gocb.Collection
}

type preferenceDoc struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// connectionString turns a host or http URL into a couchbases:// connection string
func connectionString(url string) string {
	switch {
	case strings.HasPrefix(url, "couchbase://"), strings.HasPrefix(url, "couchbases://"):
		return url
	case strings.HasPrefix(url, "http://"):
		return "couchbases://" + strings.TrimPrefix(url, "http://")
	case strings.HasPrefix(url, "https://"):
		return "couchbases://" + strings.TrimPrefix(url, "https://")
	}
	return "couchbases://" + url
}

// OpenCouchbaseStore connects to the cluster and waits for the bucket
func OpenCouchbaseStore(opts CouchbaseOptions) (*CouchbaseStore, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("couchbase store needs a bucket")
	}
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cluster, err := gocb.Connect(connectionString(opts.URL), gocb.ClusterOptions{
		Authenticator: gocb.PasswordAuthenticator{
			Username: opts.Username,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	if err := cluster.WaitUntilReady(timeout, nil); err != nil {
		cluster.Close(nil)
		return nil, fmt.Errorf("failed to wait for cluster: %w", err)
	}

	bucket := cluster.Bucket(opts.Bucket)
	if err := bucket.WaitUntilReady(timeout, nil); err != nil {
		cluster.Close(nil)
		return nil, fmt.Errorf("bucket %q is not accessible: %w", opts.Bucket, err)
	}

	log.Info().Str("bucket", opts.Bucket).Msg("Connected to couchbase store")
	return &CouchbaseStore{
		cluster:    cluster,
		collection: bucket.DefaultCollection(),
	}, nil
}

func (s *CouchbaseStore) Get(key string) (string, error) {
	res, err := s.collection.Get(couchbaseKeyPrefix+key, &gocb.GetOptions{})
	if errors.Is(err, gocb.ErrDocumentNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get document %s: %w", key, err)
	}

	var doc preferenceDoc
	if err := res.Content(&doc); err != nil {
		return "", fmt.Errorf("failed to parse document content: %w", err)
	}
	return doc.Value, nil
}

func (s *CouchbaseStore) Set(key, value string) error {
	doc := preferenceDoc{Value: value, UpdatedAt: time.Now().UTC()}
	if _, err := s.collection.Upsert(couchbaseKeyPrefix+key, doc, &gocb.UpsertOptions{}); err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", key, err)
	}
	return nil
}

func (s *CouchbaseStore) Remove(key string) error {
	_, err := s.collection.Remove(couchbaseKeyPrefix+key, &gocb.RemoveOptions{})
	if err != nil && !errors.Is(err, gocb.ErrDocumentNotFound) {
		return fmt.Errorf("failed to delete document %s: %w", key, err)
	}
	return nil
}

func (s *CouchbaseStore) Close() error {
	return s.cluster.Close(nil)
}
