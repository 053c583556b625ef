package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	clock   time.Time
}

type fakeObject struct {
	data     []byte
	modified time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]fakeObject{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeStore) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Hour)
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, modified: f.clock}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeStore) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{}
	for k, o := range f.objects {
		if !strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k), LastModified: aws.Time(o.modified)})
	}
	return out, nil
}

func (f *fakeStore) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func staticDump(content string) Dumper {
	return func(context.Context) (io.ReadCloser, func() error, error) {
		return io.NopCloser(strings.NewReader(content)), func() error { return nil }, nil
	}
}

func TestBackupRunUploadsCompressedDump(t *testing.T) {
	store := newFakeStore()
	b := &Backup{Store: store, Bucket: "backups", Keep: 2, Logger: zaptest.NewLogger(t)}

	key, err := b.Run(context.Background(), staticDump("CREATE TABLE levels ();"), time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "tckdb-backup-2024-05-06T07-08-09Z.sql.gz", key)

	zr, err := gzip.NewReader(bytes.NewReader(store.objects[key].data))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE levels ();", string(plain))
}

func TestBackupRotationKeepsNewest(t *testing.T) {
	store := newFakeStore()
	b := &Backup{Store: store, Bucket: "backups", Keep: 2, Logger: zaptest.NewLogger(t)}

	_, err := store.PutObject(context.Background(), &s3.PutObjectInput{Key: aws.String("unrelated.txt"), Body: strings.NewReader("x")})
	require.NoError(t, err)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		_, err := b.Run(context.Background(), staticDump("dump"), start.Add(time.Duration(i)*24*time.Hour))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"tckdb-backup-2024-01-03T00-00-00Z.sql.gz",
		"tckdb-backup-2024-01-04T00-00-00Z.sql.gz",
		"unrelated.txt",
	}, store.keys())
}

func TestBackupRunFailsOnDumpError(t *testing.T) {
	store := newFakeStore()
	b := &Backup{Store: store, Bucket: "backups", Keep: 2, Logger: zaptest.NewLogger(t)}

	failing := func(context.Context) (io.ReadCloser, func() error, error) {
		return io.NopCloser(strings.NewReader("partial")), func() error { return errors.New("pg_dump exited 1") }, nil
	}
	_, err := b.Run(context.Background(), failing, time.Now())
	require.Error(t, err)
	assert.Empty(t, store.keys())
}

func TestExpired(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	objs := []types.Object{
		{Key: aws.String("a"), LastModified: aws.Time(t0)},
		{Key: aws.String("c"), LastModified: aws.Time(t0.Add(2 * time.Hour))},
		{Key: aws.String("b"), LastModified: aws.Time(t0.Add(time.Hour))},
	}
	assert.Equal(t, []string{"b", "a"}, expired(objs, 1))
	assert.Nil(t, expired(objs, 3))
	assert.Len(t, expired(objs, 0), 3)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/x.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", SQLiteDSN("/tmp/x.db"))
}
