package s3store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/target/review-ingest/internal/domain/model"
)

type fakeObject struct {
	body     []byte
	modified *time.Time
	etag     string
}

// fakeBucket is an in-memory API honoring MaxKeys pagination, Range and IfMatch.
type fakeBucket struct {
	mu        sync.Mutex
	name      string
	objects   map[string]*fakeObject
	gets      []*s3.GetObjectInput
	listCalls int
	listErr   error
}

func newFakeBucket(name string) *fakeBucket {
	return &fakeBucket{name: name, objects: map[string]*fakeObject{}}
}

func (f *fakeBucket) put(key, body string, modified *time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev := 0
	if o, ok := f.objects[key]; ok {
		prev, _ = strconv.Atoi(strings.Trim(o.etag, `"`))
	}
	f.objects[key] = &fakeObject{body: []byte(body), modified: modified, etag: strconv.Quote(strconv.Itoa(prev + 1))}
}

func (f *fakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if aws.ToString(in.Bucket) != f.name {
		return nil, &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket does not exist"}
	}

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start, _ = strconv.Atoi(tok)
	}
	limit := int(aws.ToInt32(in.MaxKeys))
	if limit <= 0 {
		limit = 1000
	}
	end := min(start+limit, len(keys))

	out := &s3.ListObjectsV2Output{KeyCount: aws.Int32(int32(end - start))}
	for _, k := range keys[start:end] {
		o := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(o.body))),
			LastModified: o.modified,
		})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)

	o, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "key does not exist"}
	}
	if in.IfMatch != nil && aws.ToString(in.IfMatch) != o.etag {
		return nil, &smithy.GenericAPIError{Code: codePreconditionFailed, Message: "etag mismatch"}
	}
	body := o.body
	if r := aws.ToString(in.Range); r != "" {
		from, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(r, "bytes="), "-"), 10, 64)
		if err != nil {
			return nil, err
		}
		if from >= int64(len(body)) {
			return nil, &smithy.GenericAPIError{Code: codeInvalidRange, Message: "range not satisfiable"}
		}
		body = body[from:]
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
		ETag:          aws.String(o.etag),
	}, nil
}

func (f *fakeBucket) ref(key string) model.ObjectRef {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref := model.ObjectRef{Bucket: f.name, Key: key}
	if o, ok := f.objects[key]; ok {
		ref.Size = int64(len(o.body))
	}
	return ref
}

func (f *fakeBucket) getCalls() []*s3.GetObjectInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*s3.GetObjectInput(nil), f.gets...)
}
