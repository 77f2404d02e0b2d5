package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/lychee-technology/chartpreset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory, two keys per listing page.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string][]byte
	missing  map[string]bool
	listErr  error
	listings int
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listings++
	if f.listErr != nil {
		return nil, f.listErr
	}

	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, key := range keys {
			if key == *in.ContinuationToken {
				start = i
				break
			}
		}
	}
	end := start + 2
	out := &s3.ListObjectsV2Output{}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	} else {
		end = len(keys)
		out.IsTruncated = aws.Bool(false)
	}
	for _, key := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	if f.missing[key] {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "gone"}
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestS3PresetSource_LoadDocuments(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"presets/bar.yaml":        []byte("mark: bar\n"),
		"presets/scatter.json":    []byte(`{"mark": "point"}`),
		"presets/line.yml":        []byte("mark: line\n"),
		"presets/readme.md":       []byte("# docs"),
		"presets/":                nil,
		"other/ignored.json":      []byte(`{}`),
		"presets/nested/pie.json": []byte(`{"mark": "arc"}`),
	}}

	docs, err := NewS3PresetSource(fake, "charts", "presets/", nil).LoadDocuments(context.Background())
	require.NoError(t, err)

	var names, origins []string
	for _, d := range docs {
		names = append(names, d.Name)
		origins = append(origins, d.Origin)
	}
	assert.Equal(t, []string{"bar", "line", "pie", "scatter"}, names)
	assert.Equal(t, "s3://charts/presets/bar.yaml", origins[0])
	assert.Greater(t, fake.listings, 1, "listing must be paginated")
	assert.Equal(t, []byte(`{"mark": "point"}`), docs[3].Data)

	preset, err := DecodePresetDocument(docs[0])
	require.NoError(t, err)
	assert.Equal(t, "bar", preset.Mark())
}

func TestS3PresetSource_SkipsVanishedObjects(t *testing.T) {
	fake := &fakeS3{
		objects: map[string][]byte{"a.json": []byte(`{}`), "b.json": []byte(`{}`)},
		missing: map[string]bool{"a.json": true},
	}

	docs, err := NewS3PresetSource(fake, "bucket", "", nil).LoadDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0].Name)
}

func TestS3PresetSource_Errors(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, listErr: errors.New("no route to host")}
	_, err := NewS3PresetSource(fake, "bucket", "p/", nil).LoadDocuments(context.Background())
	require.Error(t, err)
	var pe *chartpreset.PresetError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, chartpreset.ErrCodeSourceUnavailable, pe.Code)

	denied := &deniedGetS3{fakeS3: &fakeS3{objects: map[string][]byte{"y.json": []byte(`{}`)}}}
	_, err = NewS3PresetSource(denied, "bucket", "", nil).LoadDocuments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bucket/y.json")
}

type deniedGetS3 struct {
	*fakeS3
}

func (d *deniedGetS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, &smithy.GenericAPIError{Code: "AccessDenied", Message: "denied"}
}
